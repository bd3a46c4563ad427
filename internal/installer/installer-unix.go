//go:build !windows

package installer

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/utils"
)

func launch(ctx context.Context, artifactPath string) error {
	log := utils.GetLogger("installer")
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", artifactPath)
	case "linux":
		ext := strings.ToLower(filepath.Ext(artifactPath))
		switch {
		case ext == ".deb" && commandExists("dpkg"):
			cmd = exec.CommandContext(ctx, "dpkg", "-i", artifactPath)
		case commandExists("xdg-open"):
			cmd = exec.CommandContext(ctx, "xdg-open", artifactPath)
		default:
			return errs.New(errs.CodePlatform, "no install handler for %s on linux", ext)
		}
	default:
		return errs.New(errs.CodePlatform, "install not supported on %s", runtime.GOOS)
	}
	log.Debug().Str("artifact", artifactPath).Str("handler", cmd.Path).Msg("Launching installer")
	if output, err := cmd.CombinedOutput(); err != nil {
		return errs.Wrap(errs.CodeInstallFailed, err, "installer exited: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
