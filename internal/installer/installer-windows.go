//go:build windows

package installer

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/utils"
)

func launch(ctx context.Context, artifactPath string) error {
	log := utils.GetLogger("installer")
	ext := strings.ToLower(filepath.Ext(artifactPath))
	var cmd *exec.Cmd
	switch ext {
	case ".exe":
		cmd = exec.CommandContext(ctx, artifactPath)
	case ".msi":
		cmd = exec.CommandContext(ctx, "msiexec", "/i", artifactPath)
	default:
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", artifactPath)
	}
	log.Debug().Str("artifact", artifactPath).Msg("Launching installer")
	if err := cmd.Start(); err != nil {
		return errs.Wrap(errs.CodeInstallFailed, err, "launching installer for %s", artifactPath)
	}
	return nil
}
