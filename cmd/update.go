package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check, download, and hand off to the platform installer",
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
		ctrl.Subscribe(renderProgress)
		applied, err := ctrl.Run(cmd.Context())
		endProgressLine()
		if err != nil {
			printError(fmt.Sprintf("Update failed: %v", err))
			os.Exit(1)
		}
		if !applied {
			printSuccess(fmt.Sprintf("Already up to date (%s)", cfg.CurrentVersion))
			return nil
		}
		printSuccess("Update handed off to the installer")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
