package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// PayloadEntry is one entry of a package payload
type PayloadEntry struct {
	Path     string
	Content  string
	Mode     int64
	Type     byte
	Linkname string
	Xattrs   map[string]string
}

// PackageBuilder builds package archives for tests
type PackageBuilder struct {
	descriptor  map[string]interface{}
	rawPKG      []byte
	omitPKG     bool
	omitPayload bool
	omitDirs    bool
	extra       map[string]string
	entries     []PayloadEntry
	compression string
}

// NewPackage starts a package with the given identity
func NewPackage(name, version string) *PackageBuilder {
	return &PackageBuilder{
		descriptor: map[string]interface{}{
			"name":      name,
			"version":   version,
			"epoch":     0,
			"groups":    []string{},
			"provides":  "",
			"conflicts": "",
		},
		extra:       map[string]string{},
		compression: "xz",
	}
}

func (b *PackageBuilder) WithEpoch(epoch int) *PackageBuilder {
	b.descriptor["epoch"] = epoch
	return b
}

func (b *PackageBuilder) WithGroups(groups ...string) *PackageBuilder {
	b.descriptor["groups"] = groups
	return b
}

func (b *PackageBuilder) WithProvides(joined string) *PackageBuilder {
	b.descriptor["provides"] = joined
	return b
}

func (b *PackageBuilder) WithConflicts(joined string) *PackageBuilder {
	b.descriptor["conflicts"] = joined
	return b
}

// WithRawDescriptor replaces the PKG entry content verbatim
func (b *PackageBuilder) WithRawDescriptor(raw string) *PackageBuilder {
	b.rawPKG = []byte(raw)
	return b
}

// WithoutDescriptor omits the PKG entry
func (b *PackageBuilder) WithoutDescriptor() *PackageBuilder {
	b.omitPKG = true
	return b
}

// WithoutParentDirs stops the payload from listing parent directories
// ahead of the entries, so entries are written exactly as given
func (b *PackageBuilder) WithoutParentDirs() *PackageBuilder {
	b.omitDirs = true
	return b
}

// WithoutPayload omits the data.tar.xz entry
func (b *PackageBuilder) WithoutPayload() *PackageBuilder {
	b.omitPayload = true
	return b
}

// WithExtraEntry adds a top-level entry next to PKG and data.tar.xz
func (b *PackageBuilder) WithExtraEntry(name, content string) *PackageBuilder {
	b.extra[name] = content
	return b
}

// WithFile adds a regular payload file with mode 0644
func (b *PackageBuilder) WithFile(p, content string) *PackageBuilder {
	return b.WithEntry(PayloadEntry{Path: p, Content: content, Mode: 0644, Type: tar.TypeReg})
}

// WithFileMode adds a regular payload file with an explicit mode
func (b *PackageBuilder) WithFileMode(p, content string, mode int64) *PackageBuilder {
	return b.WithEntry(PayloadEntry{Path: p, Content: content, Mode: mode, Type: tar.TypeReg})
}

// WithSymlink adds a payload symlink
func (b *PackageBuilder) WithSymlink(p, target string) *PackageBuilder {
	return b.WithEntry(PayloadEntry{Path: p, Linkname: target, Mode: 0777, Type: tar.TypeSymlink})
}

// WithEntry adds an arbitrary payload entry
func (b *PackageBuilder) WithEntry(e PayloadEntry) *PackageBuilder {
	b.entries = append(b.entries, e)
	return b
}

// Zstd compresses the outer archive with zstd instead of xz
func (b *PackageBuilder) Zstd() *PackageBuilder {
	b.compression = "zstd"
	return b
}

// Gzip compresses the outer archive with gzip instead of xz
func (b *PackageBuilder) Gzip() *PackageBuilder {
	b.compression = "gzip"
	return b
}

// Payload returns the xz-compressed payload tar
func (b *PackageBuilder) Payload(t *testing.T) []byte {
	t.Helper()

	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)

	dirs := map[string]bool{}
	for _, e := range b.entries {
		if b.omitDirs {
			break
		}
		rel := strings.TrimPrefix(e.Path, "/")
		for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir] = true
		}
	}
	sortedDirs := make([]string, 0, len(dirs))
	for d := range dirs {
		sortedDirs = append(sortedDirs, d)
	}
	sort.Strings(sortedDirs)
	for _, d := range sortedDirs {
		writeHeader(t, tw, &tar.Header{Name: d + "/", Mode: 0755, Typeflag: tar.TypeDir}, nil)
	}

	for _, e := range b.entries {
		hdr := &tar.Header{
			Name:     strings.TrimPrefix(e.Path, "/"),
			Mode:     e.Mode,
			Typeflag: e.Type,
			Linkname: e.Linkname,
		}
		if e.Type == tar.TypeReg {
			hdr.Size = int64(len(e.Content))
		}
		if len(e.Xattrs) > 0 {
			hdr.Format = tar.FormatPAX
			hdr.PAXRecords = map[string]string{}
			for k, v := range e.Xattrs {
				hdr.PAXRecords["SCHILY.xattr."+k] = v
			}
		}
		writeHeader(t, tw, hdr, []byte(e.Content))
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close payload tar: %v", err)
	}
	return compress(t, "xz", raw.Bytes())
}

// Build returns the complete package archive
func (b *PackageBuilder) Build(t *testing.T) []byte {
	t.Helper()

	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)

	if !b.omitPKG {
		pkg := b.rawPKG
		if pkg == nil {
			var err error
			pkg, err = json.Marshal(b.descriptor)
			if err != nil {
				t.Fatalf("Failed to encode descriptor: %v", err)
			}
		}
		writeHeader(t, tw, &tar.Header{Name: "PKG", Mode: 0644, Size: int64(len(pkg)), Typeflag: tar.TypeReg}, pkg)
	}
	if !b.omitPayload {
		payload := b.Payload(t)
		writeHeader(t, tw, &tar.Header{Name: "data.tar.xz", Mode: 0644, Size: int64(len(payload)), Typeflag: tar.TypeReg}, payload)
	}
	names := make([]string, 0, len(b.extra))
	for name := range b.extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		content := []byte(b.extra[name])
		writeHeader(t, tw, &tar.Header{Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}, content)
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close package tar: %v", err)
	}
	return compress(t, b.compression, raw.Bytes())
}

func writeHeader(t *testing.T, tw *tar.Writer, hdr *tar.Header, content []byte) {
	t.Helper()
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("Failed to write header %s: %v", hdr.Name, err)
	}
	if len(content) > 0 && hdr.Typeflag == tar.TypeReg {
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("Failed to write %s: %v", hdr.Name, err)
		}
	}
}

func compress(t *testing.T, kind string, data []byte) []byte {
	t.Helper()

	var out bytes.Buffer
	var w io.WriteCloser
	var err error
	switch kind {
	case "zstd":
		w, err = zstd.NewWriter(&out)
	case "gzip":
		w = gzip.NewWriter(&out)
	default:
		w, err = xz.NewWriter(&out)
	}
	if err != nil {
		t.Fatalf("Failed to create %s writer: %v", kind, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish %s stream: %v", kind, err)
	}
	return out.Bytes()
}
