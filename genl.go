//go:build linux

package nlteam

import (
	"golang.org/x/sys/unix"
)

type GenlMsghdr struct {
	Cmd     uint8
	Version uint8
	_       uint16
}

const SizeofGenlMsghdr = 0x04

var GENL_HDRLEN int = NLMSG_ALIGN(SizeofGenlMsghdr)

func (self GenlMsghdr) Bytes() []byte {
	buf := make([]byte, GENL_HDRLEN)
	buf[0] = self.Cmd
	buf[1] = self.Version
	return buf
}

// ParseGenlMsghdr reads the generic netlink header at the head of a message
// payload.
func ParseGenlMsghdr(data []byte) (GenlMsghdr, error) {
	if len(data) < GENL_HDRLEN {
		return GenlMsghdr{}, NLE_MSG_TOOSHORT
	}
	return GenlMsghdr{
		Cmd:     data[0],
		Version: data[1],
	}, nil
}

const (
	GENL_ADMIN_PERM = 1 << iota
	GENL_CMD_CAP_DO
	GENL_CMD_CAP_DUMP
	GENL_CMD_CAP_HASPOL
)

func GenlConnect(sk *NlSock) error {
	return NlConnect(sk, unix.NETLINK_GENERIC)
}

func GenlSendSimple(sk *NlSock, family uint16, cmd, version uint8, flags uint16) error {
	hdr := GenlMsghdr{
		Cmd:     cmd,
		Version: version,
	}
	return NlSendSimple(sk, family, flags, hdr.Bytes())
}

const (
	GENL_ID_GENERATE = 0
	GENL_ID_CTRL     = unix.GENL_ID_CTRL
)

const (
	GENL_CTRL_NAME        = "nlctrl"
	GENL_CTRL_NOTIFY_NAME = "notify"
	CTRL_VERSION          = 0x0002
)

const (
	CTRL_CMD_UNSPEC = iota
	CTRL_CMD_NEWFAMILY
	CTRL_CMD_DELFAMILY
	CTRL_CMD_GETFAMILY
	CTRL_CMD_NEWOPS
	CTRL_CMD_DELOPS
	CTRL_CMD_GETOPS
	CTRL_CMD_NEWMCAST_GRP
	CTRL_CMD_DELMCAST_GRP
	CTRL_CMD_GETMCAST_GRP
)

// CTRL

const (
	CTRL_ATTR_UNSPEC = iota
	CTRL_ATTR_FAMILY_ID
	CTRL_ATTR_FAMILY_NAME
	CTRL_ATTR_VERSION
	CTRL_ATTR_HDRSIZE
	CTRL_ATTR_MAXATTR
	CTRL_ATTR_OPS
	CTRL_ATTR_MCAST_GROUPS
)

var CTRL_ATTR_itoa = map[uint16]string{
	CTRL_ATTR_FAMILY_ID:    "FAMILY_ID",
	CTRL_ATTR_FAMILY_NAME:  "FAMILY_NAME",
	CTRL_ATTR_VERSION:      "VERSION",
	CTRL_ATTR_HDRSIZE:      "HDRSIZE",
	CTRL_ATTR_MAXATTR:      "MAXATTR",
	CTRL_ATTR_OPS:          "OPS",
	CTRL_ATTR_MCAST_GROUPS: "MCAST_GROUPS",
}

const (
	CTRL_ATTR_OP_UNSPEC = iota
	CTRL_ATTR_OP_ID
	CTRL_ATTR_OP_FLAGS // GENL_CMD_CAP_DUMP, etc.,
)

var CTRL_ATTR_OP_itoa = map[uint16]string{
	CTRL_ATTR_OP_ID:    "ID",
	CTRL_ATTR_OP_FLAGS: "FLAGS",
}

const (
	CTRL_ATTR_MCAST_GRP_UNSPEC = iota
	CTRL_ATTR_MCAST_GRP_NAME
	CTRL_ATTR_MCAST_GRP_ID
)

var CTRL_ATTR_MCAST_GRP_itoa = map[uint16]string{
	CTRL_ATTR_MCAST_GRP_NAME: "NAME",
	CTRL_ATTR_MCAST_GRP_ID:   "ID",
}

var CtrlPolicy MapPolicy = MapPolicy{
	Prefix: "CTRL_ATTR",
	Names:  CTRL_ATTR_itoa,
	Rule: map[uint16]Policy{
		CTRL_ATTR_FAMILY_ID:   NLA_U16,
		CTRL_ATTR_FAMILY_NAME: NLA_NUL_STRING,
		CTRL_ATTR_VERSION:     NLA_U32,
		CTRL_ATTR_HDRSIZE:     NLA_U32,
		CTRL_ATTR_MAXATTR:     NLA_U32,
		CTRL_ATTR_OPS: ListPolicy{
			Nested: MapPolicy{
				Prefix: "OP",
				Names:  CTRL_ATTR_OP_itoa,
				Rule: map[uint16]Policy{
					CTRL_ATTR_OP_ID:    NLA_U32,
					CTRL_ATTR_OP_FLAGS: NLA_U32,
				},
			},
		},
		CTRL_ATTR_MCAST_GROUPS: ListPolicy{
			Nested: MapPolicy{
				Prefix: "MCAST_GRP",
				Names:  CTRL_ATTR_MCAST_GRP_itoa,
				Rule: map[uint16]Policy{
					CTRL_ATTR_MCAST_GRP_NAME: NLA_NUL_STRING,
					CTRL_ATTR_MCAST_GRP_ID:   NLA_U32,
				},
			},
		},
	},
}
