// Package installer hands a fully verified artifact to the platform's
// install mechanism. Invocation results beyond process exit are the
// platform's business, not this client's.
package installer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tanq16/revup/internal/errs"
)

type Installer interface {
	Install(ctx context.Context, artifactPath string) error
}

type platformInstaller struct{}

// New returns the installer for the current platform.
func New() Installer { return platformInstaller{} }

func (platformInstaller) Install(ctx context.Context, artifactPath string) error {
	abs, err := filepath.Abs(artifactPath)
	if err != nil {
		return errs.Wrap(errs.CodeFile, err, "resolving artifact path")
	}
	if _, err := os.Stat(abs); err != nil {
		return errs.Wrap(errs.CodeFile, err, "artifact not found at %s", abs)
	}
	return launch(ctx, abs)
}
