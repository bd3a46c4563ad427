// Package checker decides whether an update is actionable: it fetches the
// remote metadata object, maps it into a Descriptor, and compares versions.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/utils"
	"github.com/tanq16/revup/internal/version"
)

// FetchFunc supplies the raw metadata object from an application-provided
// source instead of an HTTP endpoint.
type FetchFunc func(ctx context.Context) (map[string]any, error)

type Config struct {
	CurrentVersion string
	URL            string    // metadata endpoint; mutually exclusive with Fetch
	Fetch          FetchFunc // caller-supplied fetch; mutually exclusive with URL
	Fields         FieldMap
	Client         utils.HTTPDoer
	RequestTimeout time.Duration // bound on a single metadata fetch; 0 = none
}

type Checker struct {
	cfg    Config
	fields FieldMap
	log    zerolog.Logger
}

// New validates that exactly one metadata source is configured.
func New(cfg Config) (*Checker, error) {
	if (cfg.URL == "") == (cfg.Fetch == nil) {
		return nil, errs.New(errs.CodeInvalidMethod, "exactly one of URL or Fetch must be set")
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Checker{
		cfg:    cfg,
		fields: cfg.Fields.withDefaults(),
		log:    utils.GetLogger("checker"),
	}, nil
}

// Check returns the parsed descriptor when the remote version is newer than
// CurrentVersion, and (nil, nil) when the app is up to date.
func (c *Checker) Check(ctx context.Context) (*Descriptor, error) {
	raw, err := c.fetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	desc := ParseDescriptor(raw, c.fields)
	if !version.HasUpdate(c.cfg.CurrentVersion, desc.NewVersion) {
		c.log.Debug().Str("current", c.cfg.CurrentVersion).Str("remote", desc.NewVersion).Msg("No update available")
		return nil, nil
	}
	c.log.Debug().Str("current", c.cfg.CurrentVersion).Str("remote", desc.NewVersion).Bool("force", desc.IsForceUpdate).Msg("Update available")
	return desc, nil
}

func (c *Checker) fetchMetadata(ctx context.Context) (map[string]any, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	if c.cfg.Fetch != nil {
		raw, err := c.cfg.Fetch(ctx)
		if err != nil {
			if errs.AsError(err) != nil {
				return nil, err
			}
			return nil, errs.Wrap(errs.CodeNetwork, err, "metadata callback failed")
		}
		if raw == nil {
			return nil, errs.New(errs.CodeInvalidResponse, "metadata callback returned nothing")
		}
		return raw, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.CodeMissingURL, err, "building metadata request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errs.Wrap(errs.CodeTimeout, err, "metadata request timed out")
		}
		return nil, errs.Wrap(errs.CodeNetwork, err, "metadata request failed")
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, errs.New(errs.CodeServiceUnavailable, "metadata endpoint unavailable (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, errs.New(errs.CodeServer, "metadata endpoint returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, errs.New(errs.CodeInvalidResponse, "unexpected metadata status %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errs.Wrap(errs.CodeParse, err, "decoding metadata response")
	}
	if raw == nil {
		return nil, errs.New(errs.CodeInvalidResponse, "metadata response is not an object")
	}
	return raw, nil
}
