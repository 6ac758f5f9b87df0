package archive

import (
	"bufio"
	"bytes"
	"io"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the outer compression of a stream
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionXZ   Compression = "xz"
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
)

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Detect identifies the compression from the first bytes of a stream
func Detect(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, xzMagic):
		return CompressionXZ
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	}
	return CompressionNone
}

// Decompress wraps r in the decompressor matching its magic bytes.
// Uncompressed input is passed through unchanged.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.Wrap(err, errors.ErrPackageInvalid, "failed to read archive header")
	}

	switch Detect(head) {
	case CompressionXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPackageInvalid, "invalid xz stream")
		}
		return io.NopCloser(xr), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPackageInvalid, "invalid zstd stream")
		}
		return zr.IOReadCloser(), nil
	case CompressionGzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrPackageInvalid, "invalid gzip stream")
		}
		return gr, nil
	}
	return io.NopCloser(br), nil
}
