package linter

import (
	"path/filepath"
	"strings"
)

// WorkingDir returns the directory psalm runs in for filePath: the innermost project root containing
// the file, or the file's directory when it belongs to no project. Unsaved documents get no working
// directory.
func WorkingDir(filePath string, roots []string) string {
	if filePath == "" {
		return ""
	}

	best := ""
	for _, root := range roots {
		if root == "" || !contains(root, filePath) {
			continue
		}
		if len(filepath.Clean(root)) > len(best) {
			best = filepath.Clean(root)
		}
	}
	if best != "" {
		return best
	}

	return filepath.Dir(filePath)
}

// contains reports whether path lies inside root.
func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
