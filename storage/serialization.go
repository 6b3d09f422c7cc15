// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ragline/core"
)

// ChunkRecord is the persisted form of an indexed chunk.
type ChunkRecord struct {
	Chunk  core.Chunk
	Vector []float32
}

// MarshalChunkRecord serializes a chunk and its embedding to bytes.
func MarshalChunkRecord(record *ChunkRecord) []byte {
	buf := make([]byte, sizeChunkRecord(record))
	marshalChunkRecord(record, buf)
	return buf
}

// UnmarshalChunkRecord deserializes a ChunkRecord from bytes.
func UnmarshalChunkRecord(data []byte) (*ChunkRecord, error) {
	record, _, err := unmarshalChunkRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk record: %w", ErrSerializationFailed, err)
	}
	return record, nil
}

// MarshalVector serializes an embedding to bytes.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, sizeVector(v))
	marshalVector(v, buf)
	return buf
}

// UnmarshalVector deserializes an embedding from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	v, _, err := unmarshalVector(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	return v, nil
}

// MarshalString serializes a length-prefixed string.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString deserializes a string written by MarshalString.
func UnmarshalString(data []byte) (string, error) {
	s, _, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: string: %w", ErrSerializationFailed, err)
	}
	return s, nil
}

func chunkStrings(c *core.Chunk) []*string {
	return []*string{
		&c.ID, &c.DocumentID, &c.Text,
		&c.Metadata.Heading, &c.Metadata.URL, &c.Metadata.Category,
		&c.Metadata.OrgScope, &c.Metadata.Title,
	}
}

func chunkInts(c *core.Chunk) []*int {
	return []*int{&c.Index, &c.StartOffset, &c.EndOffset}
}

func sizeChunkRecord(r *ChunkRecord) (size int) {
	c := r.Chunk
	for _, s := range chunkStrings(&c) {
		size += ord.String.Size(*s)
	}
	for _, i := range chunkInts(&c) {
		size += varint.PositiveInt.Size(*i)
	}
	return size + sizeVector(r.Vector)
}

func marshalChunkRecord(r *ChunkRecord, bs []byte) (n int) {
	c := r.Chunk
	for _, s := range chunkStrings(&c) {
		n += ord.String.Marshal(*s, bs[n:])
	}
	for _, i := range chunkInts(&c) {
		n += varint.PositiveInt.Marshal(*i, bs[n:])
	}
	return n + marshalVector(r.Vector, bs[n:])
}

func unmarshalChunkRecord(bs []byte) (*ChunkRecord, int, error) {
	var (
		r  ChunkRecord
		n  int
		n1 int
	)
	for _, s := range chunkStrings(&r.Chunk) {
		v, read, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		*s = v
		n += read
	}
	for _, i := range chunkInts(&r.Chunk) {
		v, read, err := varint.PositiveInt.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		*i = v
		n += read
	}
	vec, n1, err := unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	r.Vector = vec
	return &r, n, nil
}

func sizeVector(v []float32) int {
	size := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, fmt.Errorf("vector length %d exceeds input", length)
	}
	v := make([]float32, length)
	for i := range v {
		f, read, err := raw.Float32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, err
		}
		v[i] = f
		n += read
	}
	return v, n, nil
}
