package archive

import (
	"archive/tar"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
)

// xattrPrefix marks extended attributes in PAX records
const xattrPrefix = "SCHILY.xattr."

// Options control how entries are written
type Options struct {
	// PreserveXattrs applies SCHILY.xattr PAX records when the filesystem
	// supports extended attributes
	PreserveXattrs bool

	// PreserveOwner applies entry uid/gid when the filesystem supports it
	PreserveOwner bool
}

// Unpack extracts the outer package archive into dest, which must be a
// scratch directory. Only regular files and directories are written.
func Unpack(fsys types.FS, r io.Reader, dest string) error {
	dr, err := Decompress(r)
	if err != nil {
		return err
	}
	defer func() { _ = dr.Close() }()

	if err := fsys.MkdirAll(dest, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create scratch directory %s", dest)
	}

	tr := tar.NewReader(dr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrPackageInvalid, "failed to read archive entries")
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
			continue
		}
		if err := writeEntry(fsys, tr, hdr, dest, Options{}); err != nil {
			return err
		}
	}
}

// ExtractPayload extracts a payload stream onto root. File modes,
// including setuid and setgid bits, are always preserved.
func ExtractPayload(fsys types.FS, r io.Reader, root string, opts Options) error {
	logger := logging.GetLogger("archive")

	dr, err := Decompress(r)
	if err != nil {
		return err
	}
	defer func() { _ = dr.Close() }()

	count := 0
	tr := tar.NewReader(dr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrExtract, "failed to read payload entries")
		}
		if err := writeEntry(fsys, tr, hdr, root, opts); err != nil {
			return err
		}
		count++
	}

	logger.Debug().Str("root", root).Int("entries", count).Msg("Payload extracted")
	return nil
}

func writeEntry(fsys types.FS, tr *tar.Reader, hdr *tar.Header, root string, opts Options) error {
	rel, err := entryPath(hdr.Name)
	if err != nil {
		return err
	}
	if rel == "/" {
		return nil
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	mode := hdr.FileInfo().Mode()

	confined := filepath.Dir(target)
	if hdr.Typeflag == tar.TypeDir {
		confined = target
	}
	if _, err := resolveInRoot(fsys, root, confined); err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err), "cannot extract %q", hdr.Name).
			WithDetail("entry", hdr.Name)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := fsys.MkdirAll(target, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", target)
		}
	case tar.TypeReg:
		if err := ensureParent(fsys, target); err != nil {
			return err
		}
		if err := replace(fsys, target); err != nil {
			return err
		}
		w, err := fsys.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to create %s", target)
		}
		if _, err := io.Copy(w, tr); err != nil {
			_ = w.Close()
			return errors.Wrapf(err, errors.ErrExtract, "failed to write %s", target)
		}
		if err := w.Close(); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to close %s", target)
		}
	case tar.TypeSymlink:
		if err := ensureParent(fsys, target); err != nil {
			return err
		}
		if err := replace(fsys, target); err != nil {
			return err
		}
		if err := fsys.Symlink(hdr.Linkname, target); err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "failed to create symlink %s", target)
		}
		return applyMetadata(fsys, hdr, target, opts)
	case tar.TypeLink:
		linkRel, err := entryPath(hdr.Linkname)
		if err != nil {
			return err
		}
		source := filepath.Join(root, filepath.FromSlash(linkRel))
		if _, err := resolveInRoot(fsys, root, filepath.Dir(source)); err != nil {
			return errors.Wrapf(err, errors.GetErrorCode(err), "cannot link %q", hdr.Linkname).
				WithDetail("entry", hdr.Name)
		}
		if err := ensureParent(fsys, target); err != nil {
			return err
		}
		if err := replace(fsys, target); err != nil {
			return err
		}
		if err := fsys.Link(source, target); err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "failed to create hard link %s", target)
		}
		return nil
	default:
		logger := logging.GetLogger("archive")
		logger.Warn().
			Str("entry", hdr.Name).
			Str("type", string(hdr.Typeflag)).
			Msg("Skipping unsupported archive entry")
		return nil
	}

	if err := fsys.Chmod(target, chmodBits(mode)); err != nil {
		return errors.Wrapf(err, errors.ErrExtract, "failed to set mode on %s", target)
	}
	return applyMetadata(fsys, hdr, target, opts)
}

// applyMetadata sets ownership and extended attributes. Ownership is
// applied before attributes since chown clears security.capability.
func applyMetadata(fsys types.FS, hdr *tar.Header, target string, opts Options) error {
	if opts.PreserveOwner {
		if ofs, ok := fsys.(types.OwnerFS); ok {
			if err := ofs.Lchown(target, hdr.Uid, hdr.Gid); err != nil {
				return errors.Wrapf(err, errors.ErrExtract, "failed to set owner on %s", target)
			}
		}
	}
	if !opts.PreserveXattrs {
		return nil
	}
	xfs, ok := fsys.(types.XattrFS)
	if !ok {
		return nil
	}
	for key, value := range hdr.PAXRecords {
		if !strings.HasPrefix(key, xattrPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, xattrPrefix)
		if err := xfs.SetXattr(target, name, []byte(value)); err != nil {
			return errors.Wrapf(err, errors.ErrExtract, "failed to set xattr %s on %s", name, target).
				WithDetail("xattr", name)
		}
	}
	return nil
}

func ensureParent(fsys types.FS, target string) error {
	dir := filepath.Dir(target)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory %s", dir)
	}
	return nil
}

// replace removes a non-directory entry at target so it can be rewritten
func replace(fsys types.FS, target string) error {
	info, err := fsys.Lstat(target)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrExtract, "cannot replace directory %s with a file", target)
	}
	if err := fsys.Remove(target); err != nil {
		return errors.Wrapf(err, errors.ErrFileRemove, "failed to replace %s", target)
	}
	return nil
}

// chmodBits keeps permission and special bits of an entry mode
func chmodBits(mode fs.FileMode) fs.FileMode {
	return mode & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
}

// maxLinkHops bounds symlink resolution, matching the kernel's ELOOP limit
const maxLinkHops = 40

// resolveInRoot follows the symlinks along dir and returns the directory
// they lead to. It fails when a link points outside root. Components that
// do not exist yet end the walk since extraction creates them as plain
// directories.
func resolveInRoot(fsys types.FS, root, dir string) (string, error) {
	root = filepath.Clean(root)
	rest, ok := splitUnder(root, filepath.Clean(dir))
	if !ok {
		return "", errors.Newf(errors.ErrPackageInvalid, "%s is outside %s", dir, root)
	}

	cur := root
	hops := 0
	for len(rest) > 0 {
		next := filepath.Join(cur, rest[0])
		rest = rest[1:]

		info, err := fsys.Lstat(next)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, syscall.ENOTDIR) {
				return filepath.Join(append([]string{next}, rest...)...), nil
			}
			return "", errors.Wrapf(err, errors.ErrExtract, "failed to inspect %s", next)
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			cur = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", errors.Newf(errors.ErrPackageInvalid, "too many levels of symlinks at %s", next)
		}
		link, err := fsys.Readlink(next)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrExtract, "failed to read symlink %s", next)
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(cur, link)
		}
		parts, ok := splitUnder(root, filepath.Clean(link))
		if !ok {
			return "", errors.Newf(errors.ErrPackageInvalid, "symlink %s points outside %s", next, root).
				WithDetail("link", link)
		}
		cur = root
		rest = append(parts, rest...)
	}
	return cur, nil
}

// splitUnder returns the components of p below root
func splitUnder(root, p string) ([]string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	if rel == "." {
		return nil, true
	}
	return strings.Split(rel, string(filepath.Separator)), true
}
