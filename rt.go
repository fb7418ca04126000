//go:build linux

package nlteam

import (
	"golang.org/x/sys/unix"
)

// IFLA attributes the link lookups care about; numbering from if_link.h.
const (
	IFLA_UNSPEC    = unix.IFLA_UNSPEC
	IFLA_ADDRESS   = unix.IFLA_ADDRESS
	IFLA_BROADCAST = unix.IFLA_BROADCAST
	IFLA_IFNAME    = unix.IFLA_IFNAME
	IFLA_MTU       = unix.IFLA_MTU
	IFLA_LINK      = unix.IFLA_LINK
	IFLA_MASTER    = unix.IFLA_MASTER
	IFLA_TXQLEN    = unix.IFLA_TXQLEN
	IFLA_OPERSTATE = unix.IFLA_OPERSTATE
	IFLA_LINKMODE  = unix.IFLA_LINKMODE
	IFLA_LINKINFO  = unix.IFLA_LINKINFO
	IFLA_IFALIAS   = unix.IFLA_IFALIAS
	IFLA_GROUP     = unix.IFLA_GROUP
	IFLA_CARRIER   = unix.IFLA_CARRIER
)

var IFLA_itoa = map[uint16]string{
	IFLA_ADDRESS:   "ADDRESS",
	IFLA_BROADCAST: "BROADCAST",
	IFLA_IFNAME:    "IFNAME",
	IFLA_MTU:       "MTU",
	IFLA_LINK:      "LINK",
	IFLA_MASTER:    "MASTER",
	IFLA_TXQLEN:    "TXQLEN",
	IFLA_OPERSTATE: "OPERSTATE",
	IFLA_LINKMODE:  "LINKMODE",
	IFLA_LINKINFO:  "LINKINFO",
	IFLA_IFALIAS:   "IFALIAS",
	IFLA_GROUP:     "GROUP",
	IFLA_CARRIER:   "CARRIER",
}

const (
	IFLA_INFO_UNSPEC = iota
	IFLA_INFO_KIND
	IFLA_INFO_DATA
	IFLA_INFO_XSTATS
	IFLA_INFO_SLAVE_KIND
	IFLA_INFO_SLAVE_DATA
)

var IFLA_INFO_itoa = map[uint16]string{
	IFLA_INFO_KIND:       "KIND",
	IFLA_INFO_DATA:       "DATA",
	IFLA_INFO_XSTATS:     "XSTATS",
	IFLA_INFO_SLAVE_KIND: "SLAVE_KIND",
	IFLA_INFO_SLAVE_DATA: "SLAVE_DATA",
}

// Operational states from RFC 2863, as reported in IFLA_OPERSTATE.
var IF_OPER_itoa = map[uint8]string{
	0: "unknown",
	1: "notpresent",
	2: "down",
	3: "lowerlayerdown",
	4: "testing",
	5: "dormant",
	6: "up",
}

var RouteLinkPolicy MapPolicy = MapPolicy{
	Prefix: "IFLA",
	Names:  IFLA_itoa,
	Rule: map[uint16]Policy{
		IFLA_IFNAME:    NLA_NUL_STRING,
		IFLA_ADDRESS:   NLA_BINARY,
		IFLA_BROADCAST: NLA_BINARY,
		IFLA_MTU:       NLA_U32,
		IFLA_LINK:      NLA_U32,
		IFLA_MASTER:    NLA_U32,
		IFLA_CARRIER:   NLA_U8,
		IFLA_TXQLEN:    NLA_U32,
		IFLA_OPERSTATE: NLA_U8,
		IFLA_LINKMODE:  NLA_U8,
		IFLA_LINKINFO: MapPolicy{
			Prefix: "INFO",
			Names:  IFLA_INFO_itoa,
			Rule: map[uint16]Policy{
				IFLA_INFO_KIND:       NLA_NUL_STRING,
				IFLA_INFO_DATA:       NLA_BINARY, // depends on the kind
				IFLA_INFO_SLAVE_KIND: NLA_NUL_STRING,
				IFLA_INFO_SLAVE_DATA: NLA_BINARY, // depends on the kind
			},
		},
		IFLA_IFALIAS: NLA_NUL_STRING,
		IFLA_GROUP:   NLA_U32,
	},
}
