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

// Command ppmbench compares the registered compression codecs on a
// sample file: compressed size, ratio and decompression speed.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppmpack/ppmpack/compr"
)

func fatalf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	var algos string
	var deadline time.Duration
	flag.StringVar(&algos, "a", strings.Join(compr.Algorithms(), ","), "comma-separated codecs to run")
	flag.DurationVar(&deadline, "t", time.Second, "minimum measurement time per codec")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fatalf("usage: %s [-a codecs] [-t dur] <file>", os.Args[0])
	}
	buf, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("reading file: %s", err)
	}

	for _, name := range strings.Split(algos, ",") {
		codec := compr.Compression(name)
		if codec == nil {
			fatalf("unknown codec %q", name)
		}
		comp := codec.Compress(buf, nil)

		start := time.Now()
		var out []byte
		var min time.Duration
		for time.Now().Before(start.Add(deadline)) {
			istart := time.Now()
			out, err = codec.Decompress(comp)
			if err != nil {
				fatalf("%s: decompression error: %s", name, err)
			}
			dur := time.Since(istart)
			if min == 0 || dur < min {
				min = dur
			}
		}
		if !bytes.Equal(out, buf) {
			fatalf("%s: decompressed output does not match input", name)
		}
		mbps := float64(len(buf)) / min.Seconds() / (1 << 20)
		fmt.Printf("%-12s %dB -> %dB (%.3gx) %.3g MiB/s\n",
			name, len(buf), len(comp), float64(len(buf))/float64(len(comp)), mbps)
	}
}
