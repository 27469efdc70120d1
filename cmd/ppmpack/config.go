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

package main

import (
	"flag"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/ppmpack/ppmpack/ppm"
)

// config carries model defaults that may come from a YAML file.
// Explicit command-line flags take precedence over the file.
type config struct {
	Order    int  `json:"order"`
	Mem      int  `json:"mem"`
	BootSize int  `json:"bootsize"`
	Reset    bool `json:"reset"`
}

func defaults() *config {
	return &config{
		Order:    ppm.OrderDefault,
		Mem:      ppm.LimitDefault,
		BootSize: ppm.BootDefault,
	}
}

func (c *config) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// overlay applies flags the user set explicitly on top of the
// file-provided (or default) values.
func (c *config) overlay() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			c.Order = dasho
		case "m":
			c.Mem = dashm
		case "b":
			c.BootSize = dashb
		case "r":
			c.Reset = dashr
		}
	})
}
