// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pierrec/lz4"
)

// PackVersion is written into every pack this Builder produces.
const PackVersion = 1

// Builder assembles an asset pack. Packs are versioned and cannot be
// appended to after writing. Add compresses entries as they come in;
// WriteTo lays out the index and the frames. Add is safe to call from
// multiple goroutines.
type Builder struct {
	mutex   sync.Mutex
	entries []builderEntry
}

type builderEntry struct {
	name       string
	size       int64
	compressed []byte
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add compresses data into the pack under the given name. Blocks
// until lz4 finishes the frame.
func (b *Builder) Add(name string, data []byte) error {
	var frame bytes.Buffer
	writer := lz4.NewWriter(&frame)
	written, err := io.Copy(writer, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("lz4.Writer.Write(): %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("lz4.Writer.Close(): %w", err)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.entries = append(b.entries, builderEntry{
		name:       name,
		size:       written,
		compressed: frame.Bytes(),
	})
	return nil
}

// WriteTo writes the complete pack and leaves the Builder empty.
// Entry offsets are relative to the start of the data section, which
// keeps them independent of the encoded index size.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	index := Index{
		Version: PackVersion,
		Created: time.Now().Unix(),
	}
	var offset int64
	for _, entry := range b.entries {
		index.Entries = append(index.Entries, IndexEntry{
			Name:           entry.name,
			Offset:         offset,
			Size:           entry.size,
			CompressedSize: int64(len(entry.compressed)),
		})
		offset += int64(len(entry.compressed))
	}

	rawIndex, err := encodeIndex(index)
	if err != nil {
		return 0, fmt.Errorf("gob.Encode(): %w", err)
	}

	var total int64
	for _, chunk := range [][]byte{magic[:], int64ToBinary(int64(len(rawIndex))), rawIndex} {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	for _, entry := range b.entries {
		n, err := w.Write(entry.compressed)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	b.entries = b.entries[:0]
	return total, nil
}
