package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/paths"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/rs/zerolog"
)

const recordExt = ".json"

type filesystemDataStore struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new DataStore instance that interacts with the filesystem.
func New(fs types.FS, paths paths.Paths) DataStore {
	return &filesystemDataStore{
		fs:     fs,
		paths:  paths,
		logger: logging.GetLogger("datastore"),
		now:    time.Now,
	}
}

func (s *filesystemDataStore) Get(name string) (*types.InstalledPackage, error) {
	path := s.paths.InstalledPath(name)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrPackageNotInstalled, "package %s is not installed", name).
				WithDetail("package", name)
		}
		return nil, errors.Wrapf(err, errors.ErrDatabase, "failed to read record for %s", name)
	}

	var rec types.InstalledPackage
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDatabase, "corrupt record for %s", name).
			WithDetail("path", path)
	}
	return &rec, nil
}

func (s *filesystemDataStore) Exists(name string) bool {
	_, err := s.fs.Stat(s.paths.InstalledPath(name))
	return err == nil
}

func (s *filesystemDataStore) Put(rec types.InstalledPackage) error {
	if rec.Name == "" {
		return errors.New(errors.ErrInvalidInput, "record has no package name")
	}
	rec.State = types.RecordPending
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = s.now().UTC()
	}
	if err := s.write(rec); err != nil {
		return err
	}
	s.logger.Debug().
		Str("package", rec.Name).
		Str("version", rec.Version).
		Int("files", len(rec.InstalledFiles)).
		Msg("Record written as pending")
	return nil
}

func (s *filesystemDataStore) Commit(name string) error {
	rec, err := s.Get(name)
	if err != nil {
		return err
	}
	rec.State = types.RecordCommitted
	if err := s.write(*rec); err != nil {
		return err
	}
	s.logger.Debug().Str("package", name).Msg("Record committed")
	return nil
}

func (s *filesystemDataStore) Delete(name string) error {
	path := s.paths.InstalledPath(name)
	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrPackageNotInstalled, "package %s is not installed", name).
				WithDetail("package", name)
		}
		return errors.Wrapf(err, errors.ErrDatabase, "failed to delete record for %s", name)
	}
	s.logger.Debug().Str("package", name).Msg("Record deleted")
	return nil
}

func (s *filesystemDataStore) List() ([]types.InstalledPackage, error) {
	entries, err := s.fs.ReadDir(s.paths.InstalledDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabase, "failed to list installed packages")
	}

	var records []types.InstalledPackage
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		rec, err := s.Get(strings.TrimSuffix(entry.Name(), recordExt))
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (s *filesystemDataStore) OwnedFiles(name string) ([]string, error) {
	rec, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.InstalledFiles, nil
}

func (s *filesystemDataStore) OwnerOf(path string) (string, bool, error) {
	records, err := s.List()
	if err != nil {
		return "", false, err
	}
	for _, rec := range records {
		if rec.Owns(path) {
			return rec.Name, true, nil
		}
	}
	return "", false, nil
}

func (s *filesystemDataStore) Disown(paths []string, keep string) error {
	if len(paths) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		drop[p] = struct{}{}
	}

	records, err := s.List()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Name == keep {
			continue
		}
		kept := rec.InstalledFiles[:0:0]
		for _, f := range rec.InstalledFiles {
			if _, ok := drop[f]; !ok {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(rec.InstalledFiles) {
			continue
		}
		s.logger.Info().
			Str("package", rec.Name).
			Int("disowned", len(rec.InstalledFiles)-len(kept)).
			Msg("Disowning files deleted by another transaction")
		rec.InstalledFiles = kept
		if err := s.write(rec); err != nil {
			return err
		}
	}
	return nil
}

// write stores rec atomically through a temp file and rename
func (s *filesystemDataStore) write(rec types.InstalledPackage) error {
	dir := s.paths.InstalledDir()
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create database directory %s", dir)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrDatabase, "failed to encode record for %s", rec.Name)
	}

	path := s.paths.InstalledPath(rec.Name)
	tmp := filepath.Join(dir, "."+rec.Name+recordExt+".tmp")
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrDatabase, "failed to write record for %s", rec.Name)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrDatabase, "failed to store record for %s", rec.Name)
	}
	return nil
}
