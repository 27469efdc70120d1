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

// Package ppmpack compresses and decompresses byte streams with the
// ppm model and the arith range coder.
//
// Stream layout, big-endian where multibyte:
//
//	magic "ppk\0"            4 bytes
//	model order              1 byte
//	memory limit in MiB      2 bytes
//	bootstrap buffer in KiB  1 byte (0: bootstrap disabled)
//	range-coded payload      EOS-terminated, plus coder slack
//	CRC-32 of the plaintext  4 bytes
package ppmpack

import "errors"

// self prefixes diagnostic lines written by Compress and Decompress.
const self = "ppmpack"

// magic identifies a compressed stream, terminating zero included.
var magic = []byte{'p', 'p', 'k', 0}

var (
	// ErrBadMagic means the input does not start with the stream magic.
	ErrBadMagic = errors.New("no magic")
	// ErrChecksum means the decompressed data does not match the
	// CRC-32 trailer.
	ErrChecksum = errors.New("checksum does not match")
	// ErrTruncated means the compressed data ended before the
	// end-of-stream symbol.
	ErrTruncated = errors.New("unexpected end of compressed data")
	// ErrLeakedEscape means the coded stream escaped below the
	// lowest model order, which a well-formed stream cannot do.
	ErrLeakedEscape = errors.New("seek character range leaked escape")
)

// headerLen is the byte length of the fixed stream header.
const headerLen = 4 + 1 + 2 + 1

// trailerLen is the byte length of the CRC-32 trailer.
const trailerLen = 4
