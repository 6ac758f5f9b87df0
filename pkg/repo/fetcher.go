package repo

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Fetcher retrieves a remote resource. Non-200 responses are errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP(S) with an optional progress bar
type HTTPFetcher struct {
	client   *http.Client
	progress bool
	out      io.Writer
}

// NewSecureHTTPClient returns a client restricted to TLS 1.2 and later
// with an overall request timeout.
func NewSecureHTTPClient(timeout time.Duration) *http.Client {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   tlsConfig,
		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// NewHTTPFetcher creates a fetcher. The progress bar is drawn on stderr
// only when progress is requested and stderr is a terminal.
func NewHTTPFetcher(timeout time.Duration, progress bool) *HTTPFetcher {
	fd := os.Stderr.Fd()
	return &HTTPFetcher{
		client:   NewSecureHTTPClient(timeout),
		progress: progress && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)),
		out:      os.Stderr,
	}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "invalid url %s", url).WithDetail("url", url)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "failed to get %s", url).WithDetail("url", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrFetch, "failed to get %s: status %s", url, resp.Status).
			WithDetail("url", url).
			WithDetail("status", resp.StatusCode)
	}

	var buf bytes.Buffer
	var w io.Writer = &buf
	if f.progress {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetDescription(path.Base(url)),
			progressbar.OptionSetWriter(f.out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		w = io.MultiWriter(&buf, bar)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetch, "failed to read %s", url).WithDetail("url", url)
	}
	return buf.Bytes(), nil
}
