package repo

import (
	"context"
	"fmt"
	"io"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
)

// Downloader fetches package archives listed in a repository index
type Downloader struct {
	fetcher Fetcher
	out     io.Writer
}

// NewDownloader creates a downloader
func NewDownloader(fetcher Fetcher, out io.Writer) *Downloader {
	return &Downloader{fetcher: fetcher, out: out}
}

// Download tries the mirrors of the match's source in order and returns
// the first archive whose SHA-512 equals the index entry.
func (d *Downloader) Download(ctx context.Context, match Match, templates []string) ([]byte, error) {
	logger := logging.GetLogger("download")

	for _, base := range Bases(match.Source, templates) {
		url := base + "/" + match.Entry.Filename
		data, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			logger.Warn().Str("url", url).Err(err).Msg("Package download failed")
			d.printf("%s. Trying next mirror.\n", describe(err))
			continue
		}
		if hash, ok := HashMatches(data, []byte(match.Entry.SHA512)); !ok {
			logger.Warn().Str("url", url).Str("computed", hash).Msg("Package hash mismatch")
			d.printf("Package at %s failed to match with repository database. Trying next mirror.\n", url)
			continue
		}
		logger.Info().Str("url", url).Int("bytes", len(data)).Msg("Package downloaded")
		return data, nil
	}

	return nil, errors.Newf(errors.ErrFetch, "could not download %s from any mirror of %s", match.Entry.Name, match.Source.Name).
		WithDetail("package", match.Entry.Name).
		WithDetail("source", match.Source.Name)
}

func (d *Downloader) printf(format string, args ...interface{}) {
	if d.out != nil {
		_, _ = fmt.Fprintf(d.out, format, args...)
	}
}
