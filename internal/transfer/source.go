package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tanq16/revup/internal/errs"
	"github.com/tanq16/revup/internal/utils"
)

// Source opens a byte stream over an update artifact starting at offset.
// The returned total is the full artifact size when the remote reports one,
// 0 otherwise.
type Source interface {
	Open(ctx context.Context, offset int64) (io.ReadCloser, int64, error)
}

// HTTPSource streams an artifact over HTTP(S) with Range-based resume.
type HTTPSource struct {
	URL      string
	Client   utils.HTTPDoer
	NoResume bool // force full transfers even when a sidecar offset exists
}

func (s *HTTPSource) Open(ctx context.Context, offset int64) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, 0, errs.Wrap(errs.CodeDownload, err, "building artifact request")
	}
	resumed := offset > 0 && !s.NoResume
	if resumed {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := s.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, errs.Wrap(errs.CodeDownload, ctx.Err(), "artifact request aborted")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, 0, errs.Wrap(errs.CodeTimeout, err, "artifact request timed out")
		}
		return nil, 0, errs.Wrap(errs.CodeNetwork, err, "artifact request failed")
	}
	expect := http.StatusOK
	if resumed {
		expect = http.StatusPartialContent
	}
	if resp.StatusCode != expect {
		resp.Body.Close()
		return nil, 0, statusError(resp.StatusCode)
	}
	total := int64(0)
	if resumed {
		total = parseContentRangeTotal(resp.Header.Get("Content-Range"))
		if total == 0 && resp.ContentLength > 0 {
			total = offset + resp.ContentLength
		}
	} else if resp.ContentLength > 0 {
		total = resp.ContentLength
	}
	return resp.Body, total, nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusServiceUnavailable:
		return errs.New(errs.CodeServiceUnavailable, "artifact endpoint unavailable (status %d)", code)
	case code >= 500:
		return errs.New(errs.CodeServer, "artifact endpoint returned status %d", code)
	default:
		return errs.New(errs.CodeDownload, "unexpected status %d from artifact endpoint", code)
	}
}

// parseContentRangeTotal extracts TOTAL from "bytes N-M/TOTAL"; 0 when the
// header is absent, malformed, or reports "*".
func parseContentRangeTotal(header string) int64 {
	if header == "" {
		return 0
	}
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return 0
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[idx+1:]), 10, 64)
	if err != nil || total < 0 {
		return 0
	}
	return total
}
