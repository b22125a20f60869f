package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for artifact download failures.
var (
	ErrDownloadUnreachable = errors.New("artifact host unreachable")
	ErrDownloadFailed      = errors.New("artifact download failed")
	ErrDownloadTimeout     = errors.New("artifact download timeout")
	ErrDownloadTooLarge    = errors.New("artifact exceeds size limit")
)

// DefaultMaxDownloadBytes bounds a single download. Rendered videos are the largest artifacts.
const DefaultMaxDownloadBytes = 512 << 20

// Downloader fetches a remote artifact by URL.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader implements Downloader over plain HTTP GET.
type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPDownloader creates a downloader whose requests give up after timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxDownloadBytes,
	}
}

func (d *HTTPDownloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, classifyError(err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDownloadTooLarge, d.maxBytes)
	}
	return body, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrDownloadTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrDownloadTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrDownloadUnreachable, err)
}

// Compile-time check that HTTPDownloader implements Downloader.
var _ Downloader = (*HTTPDownloader)(nil)
