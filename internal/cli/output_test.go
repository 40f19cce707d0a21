package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitErrorMessage(t *testing.T) {
	plain := NewExitError(ExitFailure, "swap not open")
	if got := plain.Error(); got != "swap not open" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := WrapExitError(ExitCommandError, "loading configuration", errors.New("no such file"))
	if got := wrapped.Error(); got != "loading configuration: no such file" {
		t.Errorf("Error() = %q", got)
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := WrapExitError(ExitFailure, "outer", inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped error not reachable through errors.Is")
	}
}

func TestGetExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("nope"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"failure", NewExitError(ExitFailure, "call failed"), ExitFailure},
		{"nested", fmt.Errorf("context: %w", NewExitError(ExitCommandError, "inner")), ExitCommandError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetExitCode(tc.err); got != tc.want {
				t.Errorf("GetExitCode = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPrinterPrefixes(t *testing.T) {
	var buf bytes.Buffer
	pr := printer{out: &buf}

	pr.Header("Deploying")
	pr.Step("step %d", 1)
	pr.Info("info")
	pr.Success("done")
	pr.Warning("careful")

	out := buf.String()
	if !strings.Contains(out, "Deploying") || !strings.Contains(out, "═══") {
		t.Errorf("header missing from output:\n%s", out)
	}
	for _, want := range []string{"➜ step 1", "ℹ info", "✓ done", "⚠ careful"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
