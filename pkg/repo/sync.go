package repo

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/bulge/pkg/config"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/lock"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/rs/zerolog"
)

// Remote resource names below a mirror base
const (
	DatabaseResource  = "database.db"
	HashResource      = "database.hash"
	SignatureResource = "database.sig"
)

// Attempt is the outcome of trying one mirror for one source
type Attempt struct {
	Base string
	Err  error
}

// SourceResult summarizes the sync of one source
type SourceResult struct {
	Source   string
	Synced   bool
	Mirror   string
	Hash     string
	Attempts []Attempt
}

// Report summarizes a sync run
type Report struct {
	Sources []SourceResult
}

// Failed returns the sources that kept their previous cache
func (r *Report) Failed() []string {
	var failed []string
	for _, s := range r.Sources {
		if !s.Synced {
			failed = append(failed, s.Source)
		}
	}
	return failed
}

// Syncer downloads and verifies repository databases
type Syncer struct {
	cache    *Cache
	lock     *lock.Manager
	fetcher  Fetcher
	verifier SignatureVerifier
	out      io.Writer
	logger   zerolog.Logger
}

// NewSyncer creates a syncer. verifier may be nil to skip signature checks.
func NewSyncer(cache *Cache, lk *lock.Manager, fetcher Fetcher, verifier SignatureVerifier, out io.Writer) *Syncer {
	return &Syncer{
		cache:    cache,
		lock:     lk,
		fetcher:  fetcher,
		verifier: verifier,
		out:      out,
		logger:   logging.GetLogger("sync"),
	}
}

// Bases returns the base URLs to try for source in order: the fixed URL
// alone, or every mirror template with $repo substituted.
func Bases(source types.Source, templates []string) []string {
	if source.HasFixedURL() {
		return []string{strings.TrimRight(*source.URL, "/")}
	}
	bases := make([]string, 0, len(templates))
	for _, t := range templates {
		bases = append(bases, strings.TrimRight(config.Expand(t, source.Name), "/"))
	}
	return bases
}

// Sync refreshes the cache of every source while holding the lock. Mirror
// failures are reported in the returned Report; only local failures such
// as a lock or cache write error are returned as errors.
func (s *Syncer) Sync(ctx context.Context, sources []types.Source, templates []string) (*Report, error) {
	report := &Report{}
	err := s.lock.With(func() error {
		done := logging.LogOperationStart(s.logger, "sync")
		defer done()

		s.printf("Synchronizing repo databases...\n")
		for _, source := range sources {
			result, err := s.syncSource(ctx, source, templates)
			report.Sources = append(report.Sources, result)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return report, err
}

func (s *Syncer) syncSource(ctx context.Context, source types.Source, templates []string) (SourceResult, error) {
	result := SourceResult{Source: source.Name}
	s.printf("Downloading database for %s\n", source.Name)

	for _, base := range Bases(source, templates) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, hash, err := s.tryMirror(ctx, base)
		result.Attempts = append(result.Attempts, Attempt{Base: base, Err: err})
		if err != nil {
			s.logger.Warn().
				Str("source", source.Name).
				Str("mirror", base).
				Str("code", string(errors.GetErrorCode(err))).
				Err(err).
				Msg("Mirror failed")
			s.printf("%s. Trying next mirror.\n", describe(err))
			continue
		}

		if err := s.cache.Store(source.Name, base, data, hash); err != nil {
			return result, err
		}
		result.Synced = true
		result.Mirror = base
		result.Hash = hash
		s.logger.Info().Str("source", source.Name).Str("mirror", base).Msg("Database synchronized")
		s.printf("Synchronized %s from %s\n", source.Name, base)
		return result, nil
	}

	s.logger.Warn().Str("source", source.Name).Int("attempts", len(result.Attempts)).Msg("All mirrors failed, keeping previous cache")
	s.printf("Failed to synchronize %s, keeping previous database.\n", source.Name)
	return result, nil
}

// tryMirror fetches and verifies one mirror. The database is returned only
// when every check passed.
func (s *Syncer) tryMirror(ctx context.Context, base string) ([]byte, string, error) {
	dbURL := base + "/" + DatabaseResource
	data, err := s.fetcher.Fetch(ctx, dbURL)
	if err != nil {
		return nil, "", err
	}

	hashURL := base + "/" + HashResource
	hashContent, err := s.fetcher.Fetch(ctx, hashURL)
	if err != nil {
		return nil, "", err
	}

	hash, ok := HashMatches(data, hashContent)
	if !ok {
		return nil, "", errors.Newf(errors.ErrHashMismatch, "database at %s failed to match with provided hash", dbURL).
			WithDetail("url", dbURL).
			WithDetail("computed", hash)
	}

	if s.verifier != nil {
		sigURL := base + "/" + SignatureResource
		sig, err := s.fetcher.Fetch(ctx, sigURL)
		if err != nil {
			return nil, "", err
		}
		if err := s.verifier.Verify(data, sig); err != nil {
			return nil, "", errors.Wrapf(err, errors.ErrSignature, "signature %s is not trusted", sigURL).
				WithDetail("url", sigURL)
		}
	}

	return data, hash, nil
}

func (s *Syncer) printf(format string, args ...interface{}) {
	if s.out != nil {
		_, _ = fmt.Fprintf(s.out, format, args...)
	}
}

// describe renders a mirror failure for the command output
func describe(err error) string {
	var be *errors.BulgeError
	if !stderrors.As(err, &be) {
		return err.Error()
	}
	if be.Wrapped != nil {
		return fmt.Sprintf("%s: %v", be.Message, be.Wrapped)
	}
	return be.Message
}
