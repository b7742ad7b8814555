package store

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// maxArchiveSize caps decompressed archives; a save is a few kilobytes.
const maxArchiveSize = 1 << 20

// WriteArchive writes payload to w as a zstd frame.
func WriteArchive(w io.Writer, payload []byte) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(payload); err != nil {
		enc.Close()
		return fmt.Errorf("store: write archive: %w", err)
	}
	return enc.Close()
}

// ReadArchive decompresses an archive written by WriteArchive.
func ReadArchive(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	payload, err := io.ReadAll(io.LimitReader(dec, maxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("store: read archive: %w", err)
	}
	if len(payload) > maxArchiveSize {
		return nil, fmt.Errorf("store: archive exceeds %d bytes", maxArchiveSize)
	}
	return payload, nil
}
