package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanq16/revup/internal/checker"
	"github.com/tanq16/revup/internal/config"
	"github.com/tanq16/revup/internal/controller"
	"github.com/tanq16/revup/internal/retry"
	"github.com/tanq16/revup/internal/utils"
)

var (
	configPath     string
	endpoint       string
	currentVersion string
	target         string
	preset         string
	downloadTO     time.Duration
	timeout        time.Duration
	proxyURL       string
	userAgent      string
	headers        []string
	logFile        string
	debug          bool
)

var RevupVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "revup",
	Short:   "Revup checks for, downloads, and applies application updates",
	Version: RevupVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.LogFile != "" {
			utils.SetLogFile(cfg.LogFile)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	pf.StringVarP(&endpoint, "endpoint", "e", "", "Update metadata endpoint URL")
	pf.StringVar(&currentVersion, "current", "", "Currently installed version")
	pf.StringVarP(&target, "output", "o", "", "Path for the downloaded artifact")
	pf.StringVar(&preset, "preset", "standard", "Retry preset (disabled, fast, standard, conservative)")
	pf.DurationVar(&downloadTO, "download-timeout", 30*time.Minute, "Wall-clock limit for a whole download")
	pf.DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout for metadata calls")
	pf.StringVar(&proxyURL, "proxy", "", "HTTP proxy URL")
	pf.StringVar(&userAgent, "user-agent", "", "User agent for update requests")
	pf.StringArrayVarP(&headers, "header", "H", nil, "Extra request header (Key: Value), repeatable")
	pf.StringVar(&logFile, "logfile", "", "Write logs to this file instead of stderr")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// Flags beat file and env values.
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if currentVersion != "" {
		cfg.CurrentVersion = currentVersion
	}
	if target != "" {
		cfg.Target = target
	}
	if preset != "" {
		cfg.Preset = preset
	}
	if proxyURL != "" {
		cfg.Proxy = proxyURL
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = config.Duration(downloadTO)
	}
	return cfg, nil
}

func buildController(cfg *config.Config) (*controller.Controller, error) {
	return controller.New(controller.Config{
		CurrentVersion: cfg.CurrentVersion,
		MetadataURL:    cfg.Endpoint,
		Fields: checker.FieldMap{
			Version:       cfg.Fields.Version,
			DownloadURL:   cfg.Fields.DownloadURL,
			Changelog:     cfg.Fields.Changelog,
			IsForceUpdate: cfg.Fields.IsForceUpdate,
			PublishDate:   cfg.Fields.PublishDate,
			FileSize:      cfg.Fields.FileSize,
			Checksum:      cfg.Fields.Checksum,
		},
		TargetPath:      cfg.Target,
		Strategy:        retry.Preset(cfg.Preset),
		DownloadTimeout: time.Duration(cfg.DownloadTimeout),
		CheckTimeout:    timeout,
		HTTP: utils.HTTPClientConfig{
			ProxyURL:  cfg.Proxy,
			UserAgent: cfg.UserAgent,
			Headers:   mergedHeaders(cfg),
		},
	}, nil)
}

func mergedHeaders(cfg *config.Config) map[string]string {
	merged := make(map[string]string)
	for k, v := range cfg.Headers {
		merged[k] = v
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		merged[k] = v
	}
	return merged
}
