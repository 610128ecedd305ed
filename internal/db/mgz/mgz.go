// Package mgz implements the blocked-gzip format used for tier value
// arrays (spec.md §4.G): the input is split into fixed-size blocks,
// each deflated independently with a full gzip header, and the blocks
// are concatenated. Concatenated gzip streams decompress correctly as
// a whole (gzip is concatenation-closed) while still allowing a single
// block to be decompressed in isolation given its byte range, which is
// what the `.lookup` sidecar's offsets exist to locate.
package mgz

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// DefaultBlockSize is the decompressed size of every block except
// possibly the last.
const DefaultBlockSize = 1 << 20 // 1 MiB

// Deflate splits raw into blocks of blockSize decompressed bytes (0
// selects DefaultBlockSize), independently gzips each, and returns the
// concatenated compressed stream plus the compressed-byte start offset
// of each block (the `.lookup` sidecar's prefix-sum array).
func Deflate(raw []byte, blockSize int) (compressed []byte, offsets []uint64, err error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	var buf bytes.Buffer
	for off := 0; off < len(raw) || (len(raw) == 0 && off == 0); off += blockSize {
		end := off + blockSize
		if end > len(raw) {
			end = len(raw)
		}
		offsets = append(offsets, uint64(buf.Len()))

		zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if err != nil {
			return nil, nil, fmt.Errorf("mgz: new writer: %w", err)
		}
		if _, err := zw.Write(raw[off:end]); err != nil {
			return nil, nil, fmt.Errorf("mgz: deflate block at %d: %w", off, err)
		}
		if err := zw.Close(); err != nil {
			return nil, nil, fmt.Errorf("mgz: close block at %d: %w", off, err)
		}

		if len(raw) == 0 {
			break
		}
	}
	return buf.Bytes(), offsets, nil
}

// Inflate decompresses the whole concatenated stream sequentially,
// used for whole-tier loads (spec.md §4.G "Reads").
func Inflate(compressed []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("mgz: new reader: %w", err)
	}
	zr.Multistream(true)
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("mgz: inflate: %w", err)
	}
	return out, nil
}

// InflateBlock decompresses a single block located via offsets (the
// block containing decompressedByteOffset), used for single-cell reads
// (spec.md §4.G "Reads"). blockSize must match the value passed to
// Deflate.
func InflateBlock(compressed []byte, offsets []uint64, decompressedByteOffset int, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("mgz: empty lookup index")
	}
	blockIdx := decompressedByteOffset / blockSize
	if blockIdx < 0 || blockIdx >= len(offsets) {
		return nil, fmt.Errorf("mgz: block index %d out of range [0,%d)", blockIdx, len(offsets))
	}

	start := offsets[blockIdx]
	end := uint64(len(compressed))
	if blockIdx+1 < len(offsets) {
		end = offsets[blockIdx+1]
	}
	if start > end || end > uint64(len(compressed)) {
		return nil, fmt.Errorf("mgz: corrupt lookup range [%d,%d) against %d compressed bytes", start, end, len(compressed))
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed[start:end]))
	if err != nil {
		return nil, fmt.Errorf("mgz: new block reader: %w", err)
	}
	zr.Multistream(false)
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("mgz: inflate block %d: %w", blockIdx, err)
	}
	return out, nil
}

// NumBlocks reports how many blocks raw of length n splits into under
// blockSize (0 selects DefaultBlockSize), matching Deflate's blocking.
func NumBlocks(n, blockSize int) int {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if n == 0 {
		return 1
	}
	return (n + blockSize - 1) / blockSize
}
