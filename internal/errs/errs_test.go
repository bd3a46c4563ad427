package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(CodeMissingURL, "descriptor has no %s", "downloadUrl")
	want := "MISSING_URL: descriptor has no downloadUrl"
	if plain.Error() != want {
		t.Errorf("Error() = %q, want %q", plain.Error(), want)
	}
	wrapped := Wrap(CodeNetwork, io.ErrUnexpectedEOF, "fetching metadata")
	if wrapped.Error() != "NETWORK_ERROR: fetching metadata: unexpected EOF" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeServer, cause, "status 500")
	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if New(CodeFile, "no artifact").Unwrap() != nil {
		t.Error("Unwrap on causeless error should be nil")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeParse, "bad json")); got != CodeParse {
		t.Errorf("CodeOf = %s", got)
	}
	// A coded error buried under fmt wrapping is still found.
	buried := fmt.Errorf("check failed: %w", New(CodeInvalidResponse, "status 404"))
	if got := CodeOf(buried); got != CodeInvalidResponse {
		t.Errorf("CodeOf(buried) = %s", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %s", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %s", got)
	}
}
