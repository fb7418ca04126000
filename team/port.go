//go:build linux

package team

import (
	"fmt"

	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
)

type Duplex uint8

const (
	DuplexHalf    Duplex = 0x00
	DuplexFull    Duplex = 0x01
	DuplexUnknown Duplex = 0xff
)

func (self Duplex) String() string {
	switch self {
	case DuplexHalf:
		return "half"
	case DuplexFull:
		return "full"
	}
	return "unknown"
}

func (self Duplex) MarshalText() ([]byte, error) {
	return []byte(self.String()), nil
}

// Port is the state of one team port as reported by TEAM_CMD_PORT_LIST_GET
// and change events. Speed is in Mb/s.
type Port struct {
	Ifindex uint32 `json:"ifindex" yaml:"ifindex"`
	LinkUp  bool   `json:"linkup" yaml:"linkup"`
	Speed   uint32 `json:"speed" yaml:"speed"`
	Duplex  Duplex `json:"duplex" yaml:"duplex"`
	Changed bool   `json:"changed,omitempty" yaml:"changed,omitempty"`
	Removed bool   `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func (self Port) String() string {
	link := "down"
	if self.LinkUp {
		link = "up"
	}
	ret := fmt.Sprintf("ifindex %d: link %s, %dMbit, %s duplex", self.Ifindex, link, self.Speed, self.Duplex)
	if self.Removed {
		ret += ", removed"
	} else if self.Changed {
		ret += ", changed"
	}
	return ret
}

// PortFromAttrs decodes the attributes of one TEAM_ATTR_ITEM_PORT.
func PortFromAttrs(attrs nlteam.AttrList) (Port, error) {
	var ret Port
	ifindex, ok := attrs.Get(TEAM_ATTR_PORT_IFINDEX).(uint32)
	if !ok {
		return ret, errors.Wrap(nlteam.NLE_MISSING_ATTR, "port ifindex")
	}
	ret.Ifindex = ifindex
	ret.Changed = attrs.Has(TEAM_ATTR_PORT_CHANGED)
	ret.LinkUp = attrs.Has(TEAM_ATTR_PORT_LINKUP)
	ret.Removed = attrs.Has(TEAM_ATTR_PORT_REMOVED)
	if v, ok := attrs.Get(TEAM_ATTR_PORT_SPEED).(uint32); ok {
		ret.Speed = v
	}
	ret.Duplex = DuplexUnknown
	if v, ok := attrs.Get(TEAM_ATTR_PORT_DUPLEX).(uint8); ok {
		ret.Duplex = Duplex(v)
	}
	return ret, nil
}
