package analyzers

// Document is the view of an editor buffer the linter needs.
// Path returns an empty string for documents which were never saved.
type Document interface {
	Path() string
	Text() string
}

// Editable is implemented by documents which can tell whether they are editable text buffers.
type Editable interface {
	IsEditable() bool
}

// IsSupported reports whether v is a document that can be linted. A nil pointer wrapped in the
// interface is not supported.
func IsSupported(v interface{}) (supported bool) {
	doc, ok := v.(Document)
	if !ok || doc == nil {
		return false
	}

	// a typed nil panics on its first dereference
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()
	doc.Path()

	if e, ok := v.(Editable); ok {
		return e.IsEditable()
	}
	return true
}
