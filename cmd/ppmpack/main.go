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

// Command ppmpack compresses or decompresses a byte stream with PPM
// modeling and range coding. It reads from standard input (or a named
// file) and writes to standard output (or a named file).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ppmpack/ppmpack"
	"github.com/ppmpack/ppmpack/ppm"
)

var (
	dashd bool
	dashr bool
	dasho int
	dashm int
	dashb int
	dashn int64
	dashc string
)

func init() {
	flag.BoolVar(&dashd, "d", false, "decompress to output")
	flag.BoolVar(&dashr, "r", false, "compress: full model reset on memory limit (no bootstrap)")
	flag.IntVar(&dasho, "o", 0, fmt.Sprintf("compress: model order [%d,%d]", ppm.OrderMin, ppm.OrderMax))
	flag.IntVar(&dashm, "m", 0, fmt.Sprintf("compress: memory use in MiB [%d,%d]", ppm.LimitMin, ppm.LimitMax))
	flag.IntVar(&dashb, "b", 0, fmt.Sprintf("compress: bootstrap buffer size in KiB [%d,%d]", ppm.BootMin, ppm.BootMax))
	flag.Int64Var(&dashn, "n", 0, "compress: stop after n input bytes")
	flag.StringVar(&dashc, "c", "", "config file (default: $PPMPACK_CONFIG)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: ppmpack [options] [input [output]]\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// input opens the reader for the given argument, mapping regular
// files into memory where the platform supports it.
func input(name string) (io.Reader, func()) {
	if name == "" || name == "-" {
		return os.Stdin, func() {}
	}
	f, err := os.Open(name)
	if err != nil {
		exitf("%s\n", err)
	}
	fi, err := f.Stat()
	if err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
		if mem, ok := mmap(f, fi.Size()); ok {
			f.Close()
			return bytes.NewReader(mem), func() { unmap(mem) }
		}
	}
	return f, func() { f.Close() }
}

func output(name string) io.Writer {
	if name == "" || name == "-" {
		return os.Stdout
	}
	f, err := os.Create(name)
	if err != nil {
		exitf("%s\n", err)
	}
	return f
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) > 2 {
		usage()
	}

	cfg := defaults()
	path := dashc
	if path == "" {
		path = os.Getenv("PPMPACK_CONFIG")
	}
	if path != "" {
		if err := cfg.load(path); err != nil {
			exitf("%s\n", err)
		}
	}
	cfg.overlay()

	var inname, outname string
	if len(args) > 0 {
		inname = args[0]
	}
	if len(args) > 1 {
		outname = args[1]
	}
	in, done := input(inname)
	defer done()
	out := output(outname)

	var n int64
	if dashd {
		n = ppmpack.Decompress(in, out, os.Stderr)
	} else {
		n = ppmpack.Compress(in, out, os.Stderr,
			cfg.Order, cfg.Mem, dashn, cfg.Reset, cfg.BootSize)
	}
	if c, ok := out.(io.Closer); ok && c != os.Stdout {
		if err := c.Close(); err != nil {
			exitf("%s\n", err)
		}
	}
	if n < 0 {
		os.Exit(1)
	}
}
