//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hkwi/nlteam/rtlink"
	"github.com/hkwi/nlteam/team"
	"gopkg.in/yaml.v3"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case "text", "json", "yaml":
		return &printer{format: format, w: w}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// structured writes v as json or yaml; it reports false in text mode.
func (self *printer) structured(v interface{}) (bool, error) {
	switch self.format {
	case "json":
		enc := json.NewEncoder(self.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(self.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// portView is a port with the names resolved for display.
type portView struct {
	Name  string    `json:"name" yaml:"name"`
	Flags string    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Port  team.Port `json:"port" yaml:"port"`
}

func (self *printer) ports(ports []portView) error {
	if ok, err := self.structured(ports); ok {
		return err
	}
	for _, p := range ports {
		link := "down"
		if p.Port.LinkUp {
			link = "up"
		}
		fmt.Fprintf(self.w, "%d: %s: %s %dMbit %s", p.Port.Ifindex, p.Name, link, p.Port.Speed, p.Port.Duplex)
		if p.Flags != "" {
			fmt.Fprintf(self.w, " <%s>", p.Flags)
		}
		fmt.Fprintln(self.w)
	}
	return nil
}

func portFlags(link rtlink.Link) string {
	return link.IFF().String()
}

// optionView is an option with its port named for display.
type optionView struct {
	Port   string      `json:"port,omitempty" yaml:"port,omitempty"`
	Option team.Option `json:"option" yaml:"option"`
}

func (self *printer) options(opts []optionView) error {
	if ok, err := self.structured(opts); ok {
		return err
	}
	for _, o := range opts {
		fmt.Fprintln(self.w, formatOption(o))
	}
	return nil
}

func formatOption(o optionView) string {
	line := o.Option.Name
	if o.Port != "" {
		line += fmt.Sprintf(" (port:%s)", o.Port)
	}
	if o.Option.IsArray {
		line += fmt.Sprintf(" (arridx:%d)", o.Option.ArrayIndex)
	}
	if o.Option.Removed {
		line += " (removed)"
	}
	return line + " " + o.Option.Format()
}

func (self *printer) value(o team.Option) error {
	if ok, err := self.structured(o); ok {
		return err
	}
	_, err := fmt.Fprintln(self.w, o.Format())
	return err
}
