//go:build linux

package team

import (
	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
)

// Event is the decoded content of one team family message, either a reply
// part or a change_event notification.
type Event struct {
	Cmd     uint8    `json:"-" yaml:"-"`
	Ifindex uint32   `json:"ifindex" yaml:"ifindex"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Ports   []Port   `json:"ports,omitempty" yaml:"ports,omitempty"`
}

func (self Event) CmdName() string {
	if name, ok := TEAM_CMD_itoa[self.Cmd]; ok {
		return name
	}
	return "UNKNOWN"
}

// Decode parses a team family message.
func Decode(msg nlteam.GenlMessage) (Event, error) {
	ret := Event{Cmd: msg.Genl.Cmd}
	if msg.Error != nil {
		return ret, msg.Error
	}
	attrs, err := TeamPolicy.Parse(msg.Payload)
	if err != nil {
		return ret, errors.Wrap(err, "team message")
	}
	if v, ok := attrs.Get(TEAM_ATTR_TEAM_IFINDEX).(uint32); ok {
		ret.Ifindex = v
	} else {
		return ret, errors.Wrap(nlteam.NLE_MISSING_ATTR, "team ifindex")
	}

	if items, ok := attrs.Get(TEAM_ATTR_LIST_OPTION).(nlteam.AttrList); ok {
		for _, item := range []nlteam.Attr(items) {
			if item.Field() != TEAM_ATTR_ITEM_OPTION {
				return ret, errors.Wrapf(nlteam.NLE_PARSE_ERR, "option list item type %d", item.Field())
			}
			opt, err := OptionFromAttrs(item.Value.(nlteam.AttrList))
			if err != nil {
				return ret, err
			}
			ret.Options = append(ret.Options, opt)
		}
	}
	if items, ok := attrs.Get(TEAM_ATTR_LIST_PORT).(nlteam.AttrList); ok {
		for _, item := range []nlteam.Attr(items) {
			if item.Field() != TEAM_ATTR_ITEM_PORT {
				return ret, errors.Wrapf(nlteam.NLE_PARSE_ERR, "port list item type %d", item.Field())
			}
			port, err := PortFromAttrs(item.Value.(nlteam.AttrList))
			if err != nil {
				return ret, err
			}
			ret.Ports = append(ret.Ports, port)
		}
	}
	return ret, nil
}
