//go:build linux

package team

import (
	"github.com/hkwi/nlteam"
)

// Option DATA is kept binary here and decoded by the option's TYPE.
var optionPolicy = nlteam.MapPolicy{
	Prefix: "OPTION",
	Names:  TEAM_ATTR_OPTION_itoa,
	Rule: map[uint16]nlteam.Policy{
		TEAM_ATTR_OPTION_NAME:         nlteam.NLA_NUL_STRING,
		TEAM_ATTR_OPTION_CHANGED:      nlteam.NLA_FLAG,
		TEAM_ATTR_OPTION_TYPE:         nlteam.NLA_U8,
		TEAM_ATTR_OPTION_DATA:         nlteam.NLA_BINARY,
		TEAM_ATTR_OPTION_REMOVED:      nlteam.NLA_FLAG,
		TEAM_ATTR_OPTION_PORT_IFINDEX: nlteam.NLA_U32,
		TEAM_ATTR_OPTION_ARRAY_INDEX:  nlteam.NLA_U32,
	},
}

var portPolicy = nlteam.MapPolicy{
	Prefix: "PORT",
	Names:  TEAM_ATTR_PORT_itoa,
	Rule: map[uint16]nlteam.Policy{
		TEAM_ATTR_PORT_IFINDEX: nlteam.NLA_U32,
		TEAM_ATTR_PORT_CHANGED: nlteam.NLA_FLAG,
		TEAM_ATTR_PORT_LINKUP:  nlteam.NLA_FLAG,
		TEAM_ATTR_PORT_SPEED:   nlteam.NLA_U32,
		TEAM_ATTR_PORT_DUPLEX:  nlteam.NLA_U8,
		TEAM_ATTR_PORT_REMOVED: nlteam.NLA_FLAG,
	},
}

var TeamPolicy nlteam.MapPolicy = nlteam.MapPolicy{
	Prefix: "TEAM_ATTR",
	Names:  TEAM_ATTR_itoa,
	Rule: map[uint16]nlteam.Policy{
		TEAM_ATTR_TEAM_IFINDEX: nlteam.NLA_U32,
		TEAM_ATTR_LIST_OPTION: nlteam.ListPolicy{
			Nested: optionPolicy,
		},
		TEAM_ATTR_LIST_PORT: nlteam.ListPolicy{
			Nested: portPolicy,
		},
	},
}
