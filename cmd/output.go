package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tanq16/revup/internal/transfer"
	"github.com/tanq16/revup/internal/utils"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printSuccess(msg string) { fmt.Println(successStyle.Render("✓ " + msg)) }
func printError(msg string)   { fmt.Println(errorStyle.Render("✗ " + msg)) }
func printInfo(msg string)    { fmt.Println(infoStyle.Render(msg)) }
func printWarn(msg string)    { fmt.Println(warnStyle.Render("! " + msg)) }

const progressWidth = 30

// renderProgress is an event observer that redraws a single progress line.
func renderProgress(e transfer.Event) {
	if e.Type != transfer.EventProgress || e.Progress == nil {
		return
	}
	p := e.Progress
	var bar string
	if p.TotalBytes > 0 {
		percent := float64(p.DownloadedBytes) / float64(p.TotalBytes)
		filled := int(percent * progressWidth)
		if filled > progressWidth {
			filled = progressWidth
		}
		bar = "[" + strings.Repeat("=", filled)
		if filled < progressWidth {
			bar += ">" + strings.Repeat(" ", progressWidth-filled-1)
		}
		bar += "]"
		fmt.Printf("\r%s %.1f%% %s/%s %s ETA: %s\033[K",
			dimStyle.Render(bar), percent*100,
			utils.FormatBytes(uint64(p.DownloadedBytes)), utils.FormatBytes(uint64(p.TotalBytes)),
			utils.FormatSpeed(p.Speed), utils.FormatETA(p.ETASeconds))
	} else {
		fmt.Printf("\r%s %s\033[K",
			utils.FormatBytes(uint64(p.DownloadedBytes)), utils.FormatSpeed(p.Speed))
	}
}

func endProgressLine() { fmt.Println() }
