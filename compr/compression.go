// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package compr provides a unified interface over the ppm stream
// codec and third-party compression libraries, selected by name.
// Unlike block codecs that need the decompressed size up front, every
// codec here decodes self-terminating output, which is what the ppm
// stream format produces.
package compr

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/ppmpack/ppmpack"
	"github.com/ppmpack/ppmpack/ppm"
)

// Codec compresses and decompresses self-contained blocks.
type Codec interface {
	// Name is the name of the compression algorithm;
	// Compression(Name()) yields an equivalent Codec.
	Name() string
	// Compress appends the compressed contents of src to dst and
	// returns the result.
	Compress(src, dst []byte) []byte
	// Decompress decompresses a block produced by Compress.
	Decompress(src []byte) ([]byte, error)
}

type ppmCodec struct {
	order, limit int
}

func (p ppmCodec) Name() string { return "ppm" }

func (p ppmCodec) Compress(src, dst []byte) []byte {
	buf := bytes.NewBuffer(dst)
	_, err := ppmpack.Encode(bytes.NewReader(src), buf, p.order, p.limit, 0, false, ppm.BootDefault)
	if err != nil {
		// only reachable through a bad configuration
		panic("ppm compress: " + err.Error())
	}
	return buf.Bytes()
}

func (p ppmCodec) Decompress(src []byte) ([]byte, error) {
	var out bytes.Buffer
	if _, err := ppmpack.Decode(bytes.NewReader(src), &out); err != nil {
		return nil, fmt.Errorf("ppm decompress: %w", err)
	}
	return out.Bytes(), nil
}

type zstdCodec struct {
	name string
	enc  *zstd.Encoder
}

func (z zstdCodec) Name() string { return z.name }

func (z zstdCodec) Compress(src, dst []byte) []byte {
	return z.enc.EncodeAll(src, dst)
}

func (z zstdCodec) Decompress(src []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, nil)
}

var zstdDecoder *zstd.Decoder

func init() {
	// by default, concurrency is set to min(4, GOMAXPROCS);
	// we'd like it to *always* be GOMAXPROCS
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

type s2Codec struct{}

func (s2Codec) Name() string { return "s2" }

func (s2Codec) Compress(src, dst []byte) []byte {
	got := s2.Encode(nil, src)
	if len(dst) == 0 {
		return got
	}
	return append(dst, got...)
}

func (s2Codec) Decompress(src []byte) ([]byte, error) {
	return s2.Decode(nil, src)
}

// Compression selects a codec by name, or nil if the name is
// unknown. The ppm codec runs with the default model configuration.
func Compression(name string) Codec {
	switch name {
	case "ppm":
		return ppmCodec{order: ppm.OrderDefault, limit: ppm.LimitDefault}
	case "zstd-better":
		z, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
		return zstdCodec{name, z}
	case "zstd":
		z, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCodec{name, z}
	case "s2":
		return s2Codec{}
	default:
		return nil
	}
}

// Algorithms lists the names accepted by Compression.
func Algorithms() []string {
	return []string{"ppm", "zstd", "zstd-better", "s2"}
}
