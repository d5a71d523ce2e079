package wasm

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
)

// ErrCodeTooLarge is returned when decompressed bytecode exceeds the configured limit.
var ErrCodeTooLarge = errors.New("decompressed module exceeds size limit")

// Decompress inflates a gzip container holding module bytecode. Input with
// any other framing, trailing garbage, or more than maxSize decompressed bytes
// is rejected.
func Decompress(compressed []byte, maxSize uint32) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gzip container")
	}
	defer zr.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(zr, int64(maxSize)+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress module")
	}
	if n > int64(maxSize) {
		return nil, errors.Wrapf(ErrCodeTooLarge, "limit %d bytes", maxSize)
	}
	return buf.Bytes(), nil
}

// Compress wraps bytecode in the gzip container accepted by Decompress.
func Compress(bytecode []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(bytecode); err != nil {
		return nil, errors.Wrap(err, "failed to compress module")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to compress module")
	}
	return buf.Bytes(), nil
}
