package linter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepsourcelabs/linter-psalm/analyzers"
	"github.com/deepsourcelabs/linter-psalm/analyzers/analysistest"
	"github.com/deepsourcelabs/linter-psalm/config"
)

const fixtures = "../analyzers/analysistest/testdata/src"

// psalmByFile answers with the output psalm gives for the file named by the last argument.
type psalmByFile map[string]string

func (p psalmByFile) Execute(_ context.Context, _ string, args []string, _ analyzers.ExecOptions) (string, error) {
	return p[filepath.Base(args[len(args)-1])], nil
}

func TestLintFixtures(t *testing.T) {
	exe := psalmByFile{
		"greet.php": "greet.php:5:12:error - InvalidReturnStatement: The inferred type 'string' does not match the declared return type 'int'\n" +
			"greet.php:11:6:error - UndefinedGlobalVariable: Cannot find referenced variable $undefined in global scope\n",
		"mixed.php": "mixed.php:5:5:info - MixedAssignment: Unable to determine the type that $value is being assigned to\n" +
			"mixed.php:6:12:info - MixedReturnStatement: Could not infer a return type\n" +
			"mixed.php:6:12:info - MixedInferredReturnType: Could not verify return type 'string'\n",
	}
	l := New(newStore(&config.Config{}), WithExecutor(exe), WithLogger(quietLogger()))

	if err := analysistest.Run(context.Background(), l.Lint, fixtures); err != nil {
		t.Error(err)
	}
}

func TestLintFixturesMismatch(t *testing.T) {
	exe := psalmByFile{
		"greet.php": "greet.php:5:12:error - InvalidReturnStatement: The inferred type 'string' does not match the declared return type 'int'\n",
	}
	l := New(newStore(&config.Config{}), WithExecutor(exe), WithLogger(quietLogger()))

	err := analysistest.Run(context.Background(), l.Lint, fixtures)
	if err == nil {
		t.Fatal("expected missing issues to be reported")
	}
	if !strings.Contains(err.Error(), "UndefinedGlobalVariable") {
		t.Errorf("expected the missing issue to be named, got %v", err)
	}
}
