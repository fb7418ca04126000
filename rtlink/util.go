//go:build linux

// rtlink provides RTM_*LINK util

package rtlink

import (
	"context"
	"encoding/binary"

	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Link is the part of an RTM_NEWLINK reply the team tooling needs.
type Link struct {
	unix.IfInfomsg
	Name      string
	Master    uint32
	Kind      string
	OperState string
	MTU       uint32
}

func (self Link) IFF() IFF {
	return IFF(self.Flags)
}

func ifinfoBytes(info unix.IfInfomsg) []byte {
	buf := make([]byte, unix.SizeofIfInfomsg)
	buf[0] = info.Family
	binary.NativeEndian.PutUint16(buf[2:], info.Type)
	binary.NativeEndian.PutUint32(buf[4:], uint32(info.Index))
	binary.NativeEndian.PutUint32(buf[8:], info.Flags)
	binary.NativeEndian.PutUint32(buf[12:], info.Change)
	return buf
}

// ParseLink decodes an RTM_NEWLINK message.
func ParseLink(msg nlteam.Message) (Link, error) {
	var ret Link
	if len(msg.Data) < unix.SizeofIfInfomsg {
		return ret, nlteam.NLE_MSG_TOOSHORT
	}
	ret.IfInfomsg = unix.IfInfomsg{
		Family: msg.Data[0],
		Type:   binary.NativeEndian.Uint16(msg.Data[2:]),
		Index:  int32(binary.NativeEndian.Uint32(msg.Data[4:])),
		Flags:  binary.NativeEndian.Uint32(msg.Data[8:]),
		Change: binary.NativeEndian.Uint32(msg.Data[12:]),
	}
	attrs, err := nlteam.RouteLinkPolicy.Parse(msg.Data[nlteam.NLMSG_ALIGN(unix.SizeofIfInfomsg):])
	if err != nil {
		return ret, err
	}
	if v, ok := attrs.Get(nlteam.IFLA_IFNAME).(string); ok {
		ret.Name = v
	}
	if v, ok := attrs.Get(nlteam.IFLA_MASTER).(uint32); ok {
		ret.Master = v
	}
	if v, ok := attrs.Get(nlteam.IFLA_MTU).(uint32); ok {
		ret.MTU = v
	}
	if v, ok := attrs.Get(nlteam.IFLA_OPERSTATE).(uint8); ok {
		ret.OperState = nlteam.IF_OPER_itoa[v]
	}
	if info, ok := attrs.Get(nlteam.IFLA_LINKINFO).(nlteam.AttrList); ok {
		if v, ok := info.Get(nlteam.IFLA_INFO_KIND).(string); ok {
			ret.Kind = v
		}
	}
	return ret, nil
}

func getLink(ctx context.Context, hub *nlteam.RtHub, info unix.IfInfomsg, attrs nlteam.AttrList) (Link, error) {
	msgs, err := hub.Sync(ctx, unix.RTM_GETLINK, 0, ifinfoBytes(info), attrs)
	if err != nil {
		return Link{}, err
	}
	for _, msg := range msgs {
		if msg.Header.Type == unix.RTM_NEWLINK {
			return ParseLink(msg)
		}
	}
	return Link{}, errors.Wrap(nlteam.NLE_NODEV, "response empty")
}

func GetByName(ctx context.Context, hub *nlteam.RtHub, name string) (Link, error) {
	link, err := getLink(ctx, hub, unix.IfInfomsg{Family: unix.AF_UNSPEC}, nlteam.AttrList{
		nlteam.Attr{
			Header: unix.NlAttr{Type: nlteam.IFLA_IFNAME},
			Value:  name,
		},
	})
	return link, errors.Wrapf(err, "link %s", name)
}

func GetByIndex(ctx context.Context, hub *nlteam.RtHub, index int) (Link, error) {
	link, err := getLink(ctx, hub, unix.IfInfomsg{Family: unix.AF_UNSPEC, Index: int32(index)}, nil)
	return link, errors.Wrapf(err, "link index %d", index)
}
