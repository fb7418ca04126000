//go:build linux

// Package team speaks the Linux "team" generic netlink family, which
// configures team (link aggregation) devices.
//
// Constant names and numbering follow the kernel UAPI header linux/if_team.h
// and must stay bit-exact with it.
package team

const (
	TEAM_GENL_NAME    = "team"
	TEAM_GENL_VERSION = 1
)

const (
	TEAM_STRING_MAX_LEN                = 32
	TEAM_GENL_CHANGE_EVENT_MC_GRP_NAME = "change_event"
)

// Each *_MAX is the highest valid value, which equals the number of members
// after the unspec sentinel.

const (
	TEAM_ATTR_UNSPEC = iota
	TEAM_ATTR_TEAM_IFINDEX
	TEAM_ATTR_LIST_OPTION
	TEAM_ATTR_LIST_PORT

	TEAM_ATTR_MAX = iota - 1
)

var TEAM_ATTR_itoa = map[uint16]string{
	TEAM_ATTR_TEAM_IFINDEX: "TEAM_IFINDEX",
	TEAM_ATTR_LIST_OPTION:  "LIST_OPTION",
	TEAM_ATTR_LIST_PORT:    "LIST_PORT",
}

const (
	TEAM_ATTR_ITEM_OPTION_UNSPEC = iota
	TEAM_ATTR_ITEM_OPTION

	TEAM_ATTR_ITEM_OPTION_MAX = iota - 1
)

var TEAM_ATTR_ITEM_OPTION_itoa = map[uint16]string{
	TEAM_ATTR_ITEM_OPTION: "OPTION",
}

const (
	TEAM_ATTR_OPTION_UNSPEC = iota
	TEAM_ATTR_OPTION_NAME
	TEAM_ATTR_OPTION_CHANGED
	TEAM_ATTR_OPTION_TYPE
	TEAM_ATTR_OPTION_DATA
	TEAM_ATTR_OPTION_REMOVED
	TEAM_ATTR_OPTION_PORT_IFINDEX // for per-port options
	TEAM_ATTR_OPTION_ARRAY_INDEX  // for array options

	TEAM_ATTR_OPTION_MAX = iota - 1
)

var TEAM_ATTR_OPTION_itoa = map[uint16]string{
	TEAM_ATTR_OPTION_NAME:         "NAME",
	TEAM_ATTR_OPTION_CHANGED:      "CHANGED",
	TEAM_ATTR_OPTION_TYPE:         "TYPE",
	TEAM_ATTR_OPTION_DATA:         "DATA",
	TEAM_ATTR_OPTION_REMOVED:      "REMOVED",
	TEAM_ATTR_OPTION_PORT_IFINDEX: "PORT_IFINDEX",
	TEAM_ATTR_OPTION_ARRAY_INDEX:  "ARRAY_INDEX",
}

const (
	TEAM_ATTR_ITEM_PORT_UNSPEC = iota
	TEAM_ATTR_ITEM_PORT

	TEAM_ATTR_ITEM_PORT_MAX = iota - 1
)

var TEAM_ATTR_ITEM_PORT_itoa = map[uint16]string{
	TEAM_ATTR_ITEM_PORT: "PORT",
}

const (
	TEAM_ATTR_PORT_UNSPEC = iota
	TEAM_ATTR_PORT_IFINDEX
	TEAM_ATTR_PORT_CHANGED
	TEAM_ATTR_PORT_LINKUP
	TEAM_ATTR_PORT_SPEED
	TEAM_ATTR_PORT_DUPLEX
	TEAM_ATTR_PORT_REMOVED

	TEAM_ATTR_PORT_MAX = iota - 1
)

var TEAM_ATTR_PORT_itoa = map[uint16]string{
	TEAM_ATTR_PORT_IFINDEX: "IFINDEX",
	TEAM_ATTR_PORT_CHANGED: "CHANGED",
	TEAM_ATTR_PORT_LINKUP:  "LINKUP",
	TEAM_ATTR_PORT_SPEED:   "SPEED",
	TEAM_ATTR_PORT_DUPLEX:  "DUPLEX",
	TEAM_ATTR_PORT_REMOVED: "REMOVED",
}

const (
	TEAM_CMD_NOOP = iota
	TEAM_CMD_OPTIONS_SET
	TEAM_CMD_OPTIONS_GET
	TEAM_CMD_PORT_LIST_GET

	TEAM_CMD_MAX = iota - 1
)

var TEAM_CMD_itoa = map[uint8]string{
	TEAM_CMD_NOOP:          "NOOP",
	TEAM_CMD_OPTIONS_SET:   "OPTIONS_SET",
	TEAM_CMD_OPTIONS_GET:   "OPTIONS_GET",
	TEAM_CMD_PORT_LIST_GET: "PORT_LIST_GET",
}
