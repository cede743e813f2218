// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open opens a pack from r, checking the magic and decoding the
// index. The returned Archive reads entries concurrently-safely.
func Open(r io.ReaderAt) (*Archive, error) {
	prologue := make([]byte, prologueLength)
	if _, err := r.ReadAt(prologue, 0); err != nil {
		return nil, ErrFileFormat
	}
	if string(prologue[:magicLength]) != string(magic[:]) {
		return nil, ErrFileFormat
	}

	indexSize := binaryToInt64(prologue[magicLength:])
	if indexSize <= 0 {
		return nil, ErrFileFormat
	}
	rawIndex := make([]byte, indexSize)
	if _, err := r.ReadAt(rawIndex, prologueLength); err != nil {
		return nil, ErrFileFormat
	}

	index, err := decodeIndex(rawIndex)
	if err != nil {
		return nil, err
	}

	archive := &Archive{
		reader:   r,
		dataBase: prologueLength + indexSize,
		entries:  make(map[string]IndexEntry, len(index.Entries)),
	}
	for _, entry := range index.Entries {
		archive.entries[entry.Name] = entry
	}
	return archive, nil
}

// OpenFile memory maps the pack at path and opens it. Close the
// returned Archive to unmap.
func OpenFile(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(): %w", err)
	}
	archive, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	archive.closer = r
	return archive, nil
}

// Archive provides concurrent reads over one pack. Each entry gets
// its own decompressing reader, so callers never share state.
type Archive struct {
	reader   io.ReaderAt
	dataBase int64
	entries  map[string]IndexEntry
	closer   io.Closer
}

// Names lists the entries in the pack, in no particular order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	return names
}

// Open returns a reader decompressing the named entry on the fly.
func (a *Archive) Open(name string) (io.Reader, error) {
	entry, ok := a.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.dataBase+entry.Offset, entry.CompressedSize)
	return lz4.NewReader(section), nil
}

// ReadAll returns the entire decompressed contents of the named entry.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	entry, ok := a.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	reader, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, entry.Size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("lz4.Reader.Read(): %w", err)
	}
	return data, nil
}

// Close releases the underlying mapping, when the Archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
