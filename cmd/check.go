package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/revup/internal/utils"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the update endpoint for a newer version",
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
		printInfo(fmt.Sprintf("Update available: %s -> %s", cfg.CurrentVersion, desc.NewVersion))
		if desc.IsForceUpdate {
			printWarn("This is a forced update and cannot be skipped")
		}
		if desc.FileSize > 0 {
			printInfo(fmt.Sprintf("Size: %s", utils.FormatBytes(uint64(desc.FileSize))))
		}
		if desc.PublishDate != nil {
			printInfo(fmt.Sprintf("Published: %s", desc.PublishDate.Format(time.DateOnly)))
		}
		if desc.Changelog != "" {
			fmt.Println()
			fmt.Println(desc.Changelog)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
