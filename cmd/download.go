package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Check for an update and download its artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctrl, err := buildController(cfg)
		if err != nil {
			return err
		}
		defer ctrl.Close()
		desc, err := ctrl.CheckForUpdate(cmd.Context())
		if err != nil {
			printError(fmt.Sprintf("Check failed: %v", err))
			os.Exit(1)
		}
		if desc == nil {
			printSuccess(fmt.Sprintf("Already up to date (%s)", cfg.CurrentVersion))
			return nil
		}
		printInfo(fmt.Sprintf("Downloading update %s", desc.NewVersion))
		ctrl.Subscribe(renderProgress)
		path, err := ctrl.Download(cmd.Context())
		endProgressLine()
		if err != nil {
			printError(fmt.Sprintf("Download failed: %v", err))
			os.Exit(1)
		}
		printSuccess(fmt.Sprintf("Downloaded to %s", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
