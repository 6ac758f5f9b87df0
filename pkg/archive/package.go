package archive

import (
	"archive/tar"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/types"
)

const (
	// DescriptorName is the archive entry holding the package descriptor
	DescriptorName = "PKG"

	// PayloadName is the archive entry holding the payload
	PayloadName = "data.tar.xz"
)

// IsValidPackage scans the archive for an entry named exactly PKG.
func IsValidPackage(r io.Reader) (bool, error) {
	dr, err := Decompress(r)
	if err != nil {
		return false, err
	}
	defer func() { _ = dr.Close() }()

	tr := tar.NewReader(dr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, errors.ErrPackageInvalid, "failed to read archive entries")
		}
		if hdr.Name == DescriptorName {
			return true, nil
		}
	}
}

// DecodeDescriptor parses the content of a PKG entry. Name and version are
// required; the list fields are optional.
func DecodeDescriptor(data []byte) (types.Descriptor, error) {
	var d types.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return types.Descriptor{}, errors.Wrap(err, errors.ErrDescriptorInvalid, "malformed package descriptor")
	}
	d.Name = strings.TrimSpace(d.Name)
	d.Version = strings.TrimSpace(d.Version)
	if d.Name == "" {
		return types.Descriptor{}, errors.New(errors.ErrDescriptorInvalid, "package descriptor has no name")
	}
	if d.Version == "" {
		return types.Descriptor{}, errors.Newf(errors.ErrDescriptorInvalid, "package descriptor for %s has no version", d.Name).
			WithDetail("package", d.Name)
	}
	if strings.ContainsAny(d.Name, "/\\") || d.Name == "." || d.Name == ".." {
		return types.Descriptor{}, errors.Newf(errors.ErrDescriptorInvalid, "invalid package name %q", d.Name)
	}
	return d, nil
}

// ListPayload returns the absolute destination path of every non-directory
// entry of a payload stream, in archive order.
func ListPayload(r io.Reader) ([]string, error) {
	dr, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dr.Close() }()

	var files []string
	tr := tar.NewReader(dr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPackageInvalid, "failed to read payload entries")
		}
		if hdr.Typeflag == tar.TypeDir || strings.HasSuffix(hdr.Name, "/") {
			continue
		}
		dest, err := entryPath(hdr.Name)
		if err != nil {
			return nil, err
		}
		if dest == "/" {
			continue
		}
		files = append(files, dest)
	}
}

// entryPath converts a tar entry name to an absolute package path. Names
// that would escape the root are rejected.
func entryPath(name string) (string, error) {
	clean := path.Clean("/" + strings.TrimPrefix(name, "./"))
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", errors.Newf(errors.ErrPackageInvalid, "archive entry %q escapes the root", name).
				WithDetail("entry", name)
		}
	}
	return clean, nil
}
