package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/revup/internal/utils"
)

var cleanDir string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftover partial download files",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := os.ReadDir(cleanDir)
		if err != nil {
			return err
		}
		removed := 0
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), utils.SidecarSuffix) {
				continue
			}
			if err := os.Remove(filepath.Join(cleanDir, entry.Name())); err != nil {
				printError(fmt.Sprintf("Could not remove %s: %v", entry.Name(), err))
				continue
			}
			removed++
		}
		printSuccess(fmt.Sprintf("Removed %d partial file(s)", removed))
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanDir, "dir", "d", ".", "Directory to scan for partial files")
	rootCmd.AddCommand(cleanCmd)
}
