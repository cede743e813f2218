// Copyright (c) 2020 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset is an lz4 backed pack format for rendering resources,
// shader text and mesh sources in particular. The pack itself is not
// compressed; each entry is an individual lz4 frame whose location is
// known up front from an uncompressed index, so a pack can be memory
// mapped and entries decompressed straight from their place. Reads
// are safe to perform concurrently.
package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// Package errors.
var (
	ErrFileFormat = errors.New("corrupted or not an asset pack")
	ErrNotFound   = errors.New("no entry with that name")
)

var magic = [4]byte{'M', 'R', 'P', 0}

// Layout of the pack prologue: magic, then the index size as a
// little-endian int64, then the gob-encoded index.
const (
	magicLength     = 4
	indexSizeLength = 8
	prologueLength  = magicLength + indexSizeLength
)

// IndexEntry locates one entry inside a pack. Offset is relative to
// the start of the data section following the index.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Index is the pack index, written uncompressed at the front of the
// file so entry locations are known before anything is read.
type Index struct {
	Version int64
	Created int64
	Entries []IndexEntry
}

func encodeIndex(index Index) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(index); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func decodeIndex(raw []byte) (Index, error) {
	var index Index
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&index); err != nil {
		return Index{}, ErrFileFormat
	}
	return index, nil
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, indexSizeLength)
	binary.LittleEndian.PutUint64(buf, uint64(num))
	return buf
}

func binaryToInt64(raw []byte) int64 {
	return int64(binary.LittleEndian.Uint64(raw))
}
