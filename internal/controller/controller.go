// Package controller wires the update flow together: check the metadata
// endpoint, download and verify the artifact, then hand the file to the
// platform installer. It owns the shared HTTP client's lifecycle.
package controller

import (
	"context"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanq16/revup/internal/checker"
	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/installer"
	"github.com/tanq16/revup/internal/retry"
	"github.com/tanq16/revup/internal/s3fetch"
	"github.com/tanq16/revup/internal/transfer"
	"github.com/tanq16/revup/internal/utils"
)

type Config struct {
	CurrentVersion  string
	MetadataURL     string            // metadata endpoint; mutually exclusive with Fetch
	Fetch           checker.FetchFunc // caller-supplied metadata source
	Fields          checker.FieldMap
	TargetPath      string // destination for the artifact; derived from the URL when empty
	Strategy        retry.Strategy
	DownloadTimeout time.Duration
	CheckTimeout    time.Duration // bound on a single metadata fetch
	HTTP            utils.HTTPClientConfig
}

type Controller struct {
	cfg       Config
	client    *utils.UpdaterHTTPClient
	checker   *checker.Checker
	installer installer.Installer
	log       zerolog.Logger

	mu        sync.Mutex
	desc      *checker.Descriptor
	dl        *transfer.Downloader
	artifact  string
	observers []func(transfer.Event)
}

// New builds a controller. Passing a nil Installer selects the platform one.
func New(cfg Config, inst installer.Installer) (*Controller, error) {
	// The client is shared between metadata checks and long artifact
	// transfers, so it must not carry a whole-request timeout.
	httpCfg := cfg.HTTP
	httpCfg.Timeout = 0
	client := utils.NewUpdaterHTTPClient(httpCfg)
	chk, err := checker.New(checker.Config{
		CurrentVersion: cfg.CurrentVersion,
		URL:            cfg.MetadataURL,
		Fetch:          cfg.Fetch,
		Fields:         cfg.Fields,
		Client:         client,
		RequestTimeout: cfg.CheckTimeout,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	if inst == nil {
		inst = installer.New()
	}
	return &Controller{
		cfg:       cfg,
		client:    client,
		checker:   chk,
		installer: inst,
		log:       utils.GetLogger("controller"),
	}, nil
}

// Close releases the shared transport. The controller is unusable after.
func (c *Controller) Close() {
	c.client.Close()
}

// Subscribe registers an observer for transfer events from current and
// future downloads started by this controller.
func (c *Controller) Subscribe(fn func(transfer.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) publish(e transfer.Event) {
	c.mu.Lock()
	observers := make([]func(transfer.Event), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(e)
	}
}

// CheckForUpdate queries the metadata source and remembers the actionable
// descriptor, or returns (nil, nil) when the app is current.
func (c *Controller) CheckForUpdate(ctx context.Context) (*checker.Descriptor, error) {
	desc, err := c.checker.Check(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.desc = desc
	c.mu.Unlock()
	return desc, nil
}

// Descriptor returns the update found by the last CheckForUpdate, if any.
func (c *Controller) Descriptor() *checker.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc
}

// Download transfers the artifact for the stored descriptor and returns its
// final local path.
func (c *Controller) Download(ctx context.Context) (string, error) {
	c.mu.Lock()
	desc := c.desc
	dl := c.dl
	c.mu.Unlock()
	if dl != nil {
		// An in-flight or paused transfer continues instead of starting over.
		return c.finishDownload(dl.Resume(ctx))
	}
	if desc == nil {
		return "", errs.New(errs.CodeMissingURL, "no update descriptor; run a check first")
	}
	if desc.DownloadURL == "" {
		return "", errs.New(errs.CodeMissingURL, "update descriptor has no download URL")
	}
	if desc.NewVersion == "" {
		return "", errs.New(errs.CodeMissingVersion, "update descriptor has no version")
	}
	cfg := transfer.Config{
		URL:          desc.DownloadURL,
		TargetPath:   c.targetPath(desc),
		ExpectedSize: desc.FileSize,
		Checksum:     desc.Checksum,
		Strategy:     c.cfg.Strategy,
		Timeout:      c.cfg.DownloadTimeout,
	}
	var (
		newDl *transfer.Downloader
		err   error
	)
	if s3fetch.IsS3URL(desc.DownloadURL) {
		var source *s3fetch.Source
		source, err = s3fetch.NewSource(ctx, desc.DownloadURL)
		if err == nil {
			newDl = transfer.New(cfg, source)
		}
	} else {
		newDl, err = transfer.NewHTTP(cfg, c.client)
	}
	if err != nil {
		return "", err
	}
	newDl.Subscribe(c.publish)
	c.mu.Lock()
	c.dl = newDl
	c.mu.Unlock()
	c.log.Debug().Str("url", desc.DownloadURL).Str("target", cfg.TargetPath).Str("version", desc.NewVersion).Msg("Starting artifact download")
	return c.finishDownload(newDl.Download(ctx))
}

func (c *Controller) finishDownload(path string, err error) (string, error) {
	c.mu.Lock()
	if err == nil {
		c.artifact = path
	}
	if err != nil || path != "" {
		// Terminal either way; the next Download builds a fresh transfer.
		if c.dl != nil && c.dl.Status() != transfer.StatusPaused {
			c.dl = nil
		}
	}
	c.mu.Unlock()
	return path, err
}

// Pause suspends the in-flight download, if any.
func (c *Controller) Pause() {
	if dl := c.downloader(); dl != nil {
		dl.Pause()
	}
}

// Resume continues a paused download and waits for the result.
func (c *Controller) Resume(ctx context.Context) (string, error) {
	dl := c.downloader()
	if dl == nil {
		return c.Download(ctx)
	}
	return c.finishDownload(dl.Resume(ctx))
}

// Cancel aborts the in-flight download and discards its partial file.
func (c *Controller) Cancel() {
	c.mu.Lock()
	dl := c.dl
	c.dl = nil
	c.mu.Unlock()
	if dl != nil {
		dl.Cancel()
	}
}

func (c *Controller) downloader() *transfer.Downloader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dl
}

// Install hands the downloaded artifact to the platform installer.
func (c *Controller) Install(ctx context.Context) error {
	c.mu.Lock()
	artifact := c.artifact
	c.mu.Unlock()
	if artifact == "" {
		return errs.New(errs.CodeFile, "no downloaded artifact to install")
	}
	if err := c.installer.Install(ctx, artifact); err != nil {
		if errs.AsError(err) != nil {
			return err
		}
		return errs.Wrap(errs.CodeInstallFailed, err, "installing %s", artifact)
	}
	c.log.Debug().Str("artifact", artifact).Msg("Installer invoked")
	return nil
}

// Run is the whole flow: check, download, install. It reports whether an
// update was applied.
func (c *Controller) Run(ctx context.Context) (bool, error) {
	desc, err := c.CheckForUpdate(ctx)
	if err != nil {
		return false, err
	}
	if desc == nil {
		return false, nil
	}
	if _, err := c.Download(ctx); err != nil {
		return false, err
	}
	if err := c.Install(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) targetPath(desc *checker.Descriptor) string {
	if c.cfg.TargetPath != "" {
		return c.cfg.TargetPath
	}
	if u, err := url.Parse(desc.DownloadURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return "update-" + desc.NewVersion
}
