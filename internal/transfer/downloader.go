// Package transfer implements the resumable update-artifact download: a
// single sequential byte stream into a sidecar file, with pause/resume,
// cooperative cancellation, retry with backoff, sliding-window speed
// telemetry, and a checksum gate before the sidecar replaces the target.
package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/retry"
	"github.com/tanq16/revup/internal/utils"
)

// DefaultTimeout bounds a whole download including retries and backoff.
const DefaultTimeout = 30 * time.Minute

var errPaused = errors.New("transfer paused")

type Config struct {
	URL          string
	TargetPath   string
	ExpectedSize int64  // 0 = unknown
	Checksum     string // hex md5 digest; empty skips verification
	Strategy     retry.Strategy
	Timeout      time.Duration // wall clock for the whole download; DefaultTimeout when 0
	BufferSize   int
}

// Downloader drives one artifact transfer. A single transfer is in flight
// per instance; concurrent Download calls join the same result.
type Downloader struct {
	id     string
	cfg    Config
	source Source
	log    zerolog.Logger
	events notifier

	mu            sync.Mutex
	status        Status
	attempt       int
	downloaded    int64
	total         int64
	meter         *speedMeter
	paused        bool
	canceled      bool
	resumeCh      chan struct{}
	cancelCh      chan struct{}
	cancelOnce    sync.Once
	cancelAttempt context.CancelFunc
	pending       chan struct{}
	resultPath    string
	resultErr     error
}

func New(cfg Config, source Source) *Downloader {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = utils.DefaultBufferSize
	}
	if cfg.ExpectedSize < 0 {
		cfg.ExpectedSize = 0
	}
	id := uuid.NewString()
	return &Downloader{
		id:       id,
		cfg:      cfg,
		source:   source,
		log:      utils.GetLogger("transfer").With().Str("transferId", id).Logger(),
		status:   StatusIdle,
		total:    cfg.ExpectedSize,
		meter:    newSpeedMeter(),
		cancelCh: make(chan struct{}),
	}
}

func (d *Downloader) ID() string { return d.id }

// SidecarPath is where partial bytes accumulate until finalize.
func (d *Downloader) SidecarPath() string {
	return d.cfg.TargetPath + utils.SidecarSuffix
}

func (d *Downloader) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Downloader) Progress() Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progressLocked()
}

// Subscribe registers an observer for status/progress/error events. Events
// are delivered in production order; there is no replay for late observers.
func (d *Downloader) Subscribe(fn func(Event)) {
	d.events.subscribe(fn)
}

// Download runs the transfer to completion and returns the final target
// path. It is idempotent once downloaded, and a second caller during an
// in-flight transfer waits for the same result instead of starting another.
// Canceling ctx behaves like Cancel: the sidecar is removed and
// DOWNLOAD_CANCELED surfaces.
func (d *Downloader) Download(ctx context.Context) (string, error) {
	d.mu.Lock()
	switch {
	case d.status == StatusDownloaded:
		path := d.resultPath
		d.mu.Unlock()
		return path, nil
	case d.pending != nil:
		done := d.pending
		d.mu.Unlock()
		return d.await(done)
	case d.canceled:
		d.mu.Unlock()
		return "", errs.New(errs.CodeDownloadCanceled, "download already canceled")
	}
	done := make(chan struct{})
	d.pending = done
	d.mu.Unlock()

	path, err := d.run(ctx)

	d.mu.Lock()
	d.resultPath, d.resultErr = path, err
	d.pending = nil
	d.mu.Unlock()
	close(done)
	return path, err
}

// Resume continues a paused transfer and waits for the overall result. With
// nothing paused it behaves exactly like Download.
func (d *Downloader) Resume(ctx context.Context) (string, error) {
	d.mu.Lock()
	if d.paused && d.pending != nil {
		d.paused = false
		ch := d.resumeCh
		d.resumeCh = nil
		done := d.pending
		d.mu.Unlock()
		if ch != nil {
			close(ch)
		}
		return d.await(done)
	}
	d.mu.Unlock()
	return d.Download(ctx)
}

// Pause stops the transfer after the chunk in flight, keeping the sidecar
// and its byte offset. No-op unless currently downloading.
func (d *Downloader) Pause() {
	d.mu.Lock()
	if d.status != StatusDownloading {
		d.mu.Unlock()
		return
	}
	d.paused = true
	d.resumeCh = make(chan struct{})
	cancel := d.cancelAttempt
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Cancel aborts the transfer, removes the sidecar, and fails the pending
// result with DOWNLOAD_CANCELED. No-op in terminal states.
func (d *Downloader) Cancel() {
	d.mu.Lock()
	if d.canceled || d.status == StatusDownloaded {
		d.mu.Unlock()
		return
	}
	d.canceled = true
	cancel := d.cancelAttempt
	inFlight := d.pending != nil
	d.mu.Unlock()
	d.cancelOnce.Do(func() { close(d.cancelCh) })
	if cancel != nil {
		cancel()
	}
	if !inFlight {
		// Nothing running to observe the flag; clean up directly.
		d.removeSidecar()
		d.setStatus(StatusCanceled)
	}
}

func (d *Downloader) await(done chan struct{}) (string, error) {
	<-done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resultPath, d.resultErr
}

// run is the retry orchestration around individual transfer attempts.
func (d *Downloader) run(ctx context.Context) (string, error) {
	deadline := time.Now().Add(d.cfg.Timeout)
	attempt := 0
	d.setAttempt(attempt)
	for {
		d.setStatus(StatusDownloading)
		err := d.runAttempt(ctx, deadline)
		if err == nil {
			path, ferr := d.finalize()
			if ferr != nil {
				return "", d.fail(ferr)
			}
			d.setStatus(StatusDownloaded)
			d.log.Debug().Str("path", path).Int64("bytes", d.Progress().DownloadedBytes).Msg("Download finalized")
			return path, nil
		}
		if errors.Is(err, errPaused) {
			d.setStatus(StatusPaused)
			d.log.Debug().Msg("Transfer paused, sidecar kept")
			if werr := d.awaitResume(ctx, deadline); werr != nil {
				if errs.CodeOf(werr) == errs.CodeDownloadCanceled {
					return "", d.failCanceled(werr)
				}
				return "", d.fail(werr)
			}
			// Resume re-enters at the persisted offset without burning a
			// retry attempt.
			continue
		}
		if errs.CodeOf(err) == errs.CodeDownloadCanceled {
			return "", d.failCanceled(err)
		}
		if time.Now().After(deadline) {
			if errs.CodeOf(err) != errs.CodeDownloadTimeout {
				err = errs.Wrap(errs.CodeDownloadTimeout, err, "download timed out after %v", d.cfg.Timeout)
			}
			return "", d.fail(err)
		}
		if !d.cfg.Strategy.ShouldRetry(err, attempt) {
			return "", d.fail(err)
		}
		delay := d.cfg.Strategy.Delay(attempt)
		d.log.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Retrying transfer")
		if werr := d.sleep(ctx, delay); werr != nil {
			return "", d.failCanceled(werr)
		}
		attempt++
		d.setAttempt(attempt)
	}
}

// runAttempt streams from the current sidecar offset until the stream is
// complete, paused, canceled, or broken. A nil return means all bytes are on
// disk and finalize may proceed.
func (d *Downloader) runAttempt(ctx context.Context, deadline time.Time) error {
	sidecar := d.SidecarPath()
	offset := int64(0)
	if fi, err := os.Stat(sidecar); err == nil {
		offset = fi.Size()
	}
	if d.cfg.ExpectedSize > 0 && offset >= d.cfg.ExpectedSize {
		// A previous session already has every byte; go straight to finalize.
		d.setCounts(offset, d.cfg.ExpectedSize)
		return nil
	}

	attemptCtx, cancel := context.WithDeadline(ctx, deadline)
	d.mu.Lock()
	d.cancelAttempt = cancel
	d.mu.Unlock()
	defer func() {
		cancel()
		d.mu.Lock()
		d.cancelAttempt = nil
		d.mu.Unlock()
	}()

	body, total, err := d.source.Open(attemptCtx, offset)
	if err != nil {
		if stop := d.interruption(ctx); stop != nil {
			return stop
		}
		return err
	}
	defer body.Close()
	if total == 0 {
		total = d.cfg.ExpectedSize
	}
	if offset > 0 {
		d.log.Debug().Int64("resumeOffset", offset).Int64("total", total).Msg("Resuming incomplete download")
	}

	flag := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	file, err := os.OpenFile(sidecar, flag, 0644)
	if err != nil {
		return errs.Wrap(errs.CodeFile, err, "opening partial file")
	}
	defer file.Close()

	downloaded := offset
	d.setCounts(downloaded, total)
	buffer := make([]byte, d.cfg.BufferSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if stop := d.interruption(ctx); stop != nil {
				return stop
			}
			if _, writeErr := file.Write(buffer[:n]); writeErr != nil {
				return errs.Wrap(errs.CodeFile, writeErr, "writing partial file")
			}
			downloaded += int64(n)
			d.recordChunk(downloaded, total, int64(n))
			if total > 0 && downloaded >= total {
				return nil
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				if total > 0 && downloaded < total {
					return errs.Wrap(errs.CodeConnection, io.ErrUnexpectedEOF,
						"connection closed at %d of %d bytes", downloaded, total)
				}
				return nil
			}
			if stop := d.interruption(ctx); stop != nil {
				return stop
			}
			if time.Now().After(deadline) {
				return errs.Wrap(errs.CodeDownloadTimeout, readErr, "download timed out after %v", d.cfg.Timeout)
			}
			return errs.Wrap(errs.CodeConnection, readErr, "reading response stream")
		}
	}
}

// interruption maps the pause/cancel flags and the caller's context onto the
// attempt outcome. Checked at every chunk boundary.
func (d *Downloader) interruption(ctx context.Context) error {
	d.mu.Lock()
	canceled, paused := d.canceled, d.paused
	d.mu.Unlock()
	if canceled {
		return errs.New(errs.CodeDownloadCanceled, "download canceled")
	}
	if ctx.Err() != nil {
		d.mu.Lock()
		d.canceled = true
		d.mu.Unlock()
		d.cancelOnce.Do(func() { close(d.cancelCh) })
		return errs.Wrap(errs.CodeDownloadCanceled, ctx.Err(), "download canceled")
	}
	if paused {
		return errPaused
	}
	return nil
}

func (d *Downloader) awaitResume(ctx context.Context, deadline time.Time) error {
	d.mu.Lock()
	ch := d.resumeCh
	d.mu.Unlock()
	if ch == nil {
		return nil
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-d.cancelCh:
		return errs.New(errs.CodeDownloadCanceled, "download canceled")
	case <-ctx.Done():
		return errs.Wrap(errs.CodeDownloadCanceled, ctx.Err(), "download canceled")
	case <-timer.C:
		return errs.New(errs.CodeDownloadTimeout, "download timed out after %v while paused", d.cfg.Timeout)
	}
}

// sleep is the inter-attempt backoff, interruptible by cancellation.
func (d *Downloader) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(errs.CodeDownloadCanceled, err, "download canceled")
		}
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-d.cancelCh:
		return errs.New(errs.CodeDownloadCanceled, "download canceled")
	case <-ctx.Done():
		return errs.Wrap(errs.CodeDownloadCanceled, ctx.Err(), "download canceled")
	}
}

// finalize verifies the completed sidecar and moves it over the target.
func (d *Downloader) finalize() (string, error) {
	sidecar := d.SidecarPath()
	if d.cfg.Checksum != "" {
		digest, err := fileMD5(sidecar)
		if err != nil {
			return "", errs.Wrap(errs.CodeFile, err, "hashing downloaded file")
		}
		if !strings.EqualFold(digest, d.cfg.Checksum) {
			os.Remove(sidecar)
			return "", errs.New(errs.CodeChecksumMismatch,
				"checksum mismatch: expected %s, got %s", d.cfg.Checksum, digest)
		}
	}
	if _, err := os.Stat(d.cfg.TargetPath); err == nil {
		if err := os.Remove(d.cfg.TargetPath); err != nil {
			return "", errs.Wrap(errs.CodeFile, err, "removing previous target file")
		}
	}
	if err := os.Rename(sidecar, d.cfg.TargetPath); err != nil {
		return "", errs.Wrap(errs.CodeFile, err, "finalizing downloaded file")
	}
	return d.cfg.TargetPath, nil
}

func (d *Downloader) fail(err error) error {
	d.setStatus(StatusError)
	d.events.publish(Event{ID: d.id, Type: EventError, Status: StatusError, Err: err})
	d.log.Debug().Err(err).Msg("Download failed")
	return err
}

func (d *Downloader) failCanceled(err error) error {
	d.removeSidecar()
	d.setStatus(StatusCanceled)
	d.events.publish(Event{ID: d.id, Type: EventError, Status: StatusCanceled, Err: err})
	d.log.Debug().Msg("Download canceled, sidecar removed")
	return err
}

func (d *Downloader) removeSidecar() {
	if err := os.Remove(d.SidecarPath()); err != nil && !os.IsNotExist(err) {
		d.log.Debug().Err(err).Msg("Failed to remove sidecar file")
	}
}

func (d *Downloader) setStatus(status Status) {
	d.mu.Lock()
	if d.status == status {
		d.mu.Unlock()
		return
	}
	d.status = status
	d.mu.Unlock()
	d.events.publish(Event{ID: d.id, Type: EventStatus, Status: status})
}

func (d *Downloader) setAttempt(attempt int) {
	d.mu.Lock()
	d.attempt = attempt
	d.meter.Reset()
	d.mu.Unlock()
}

func (d *Downloader) setCounts(downloaded, total int64) {
	d.mu.Lock()
	d.downloaded = downloaded
	if total > 0 {
		d.total = total
	}
	d.mu.Unlock()
}

func (d *Downloader) recordChunk(downloaded, total, chunk int64) {
	d.mu.Lock()
	d.downloaded = downloaded
	if total > 0 {
		d.total = total
	}
	d.meter.Add(chunk)
	progress := d.progressLocked()
	d.mu.Unlock()
	d.events.publish(Event{ID: d.id, Type: EventProgress, Status: StatusDownloading, Progress: &progress})
}

func (d *Downloader) progressLocked() Progress {
	speed := d.meter.Speed()
	return Progress{
		DownloadedBytes: d.downloaded,
		TotalBytes:      d.total,
		Speed:           speed,
		ETASeconds:      etaSeconds(d.downloaded, d.total, speed),
		Attempt:         d.attempt,
	}
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewHTTP builds a Downloader over an HTTP source using the shared client.
func NewHTTP(cfg Config, client utils.HTTPDoer) (*Downloader, error) {
	if cfg.URL == "" {
		return nil, errs.New(errs.CodeMissingURL, "download URL is required")
	}
	if cfg.TargetPath == "" {
		return nil, errs.New(errs.CodeFile, "target path is required")
	}
	return New(cfg, &HTTPSource{URL: cfg.URL, Client: client}), nil
}
