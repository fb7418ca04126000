//go:build linux

package team

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// values of linux/if_team.h
var golden = map[string]int{
	"TEAM_GENL_VERSION":   1,
	"TEAM_STRING_MAX_LEN": 32,

	"TEAM_ATTR_UNSPEC":       0,
	"TEAM_ATTR_TEAM_IFINDEX": 1,
	"TEAM_ATTR_LIST_OPTION":  2,
	"TEAM_ATTR_LIST_PORT":    3,
	"TEAM_ATTR_MAX":          3,

	"TEAM_ATTR_ITEM_OPTION_UNSPEC": 0,
	"TEAM_ATTR_ITEM_OPTION":        1,
	"TEAM_ATTR_ITEM_OPTION_MAX":    1,

	"TEAM_ATTR_OPTION_UNSPEC":       0,
	"TEAM_ATTR_OPTION_NAME":         1,
	"TEAM_ATTR_OPTION_CHANGED":      2,
	"TEAM_ATTR_OPTION_TYPE":         3,
	"TEAM_ATTR_OPTION_DATA":         4,
	"TEAM_ATTR_OPTION_REMOVED":      5,
	"TEAM_ATTR_OPTION_PORT_IFINDEX": 6,
	"TEAM_ATTR_OPTION_ARRAY_INDEX":  7,
	"TEAM_ATTR_OPTION_MAX":          7,

	"TEAM_ATTR_ITEM_PORT_UNSPEC": 0,
	"TEAM_ATTR_ITEM_PORT":        1,
	"TEAM_ATTR_ITEM_PORT_MAX":    1,

	"TEAM_ATTR_PORT_UNSPEC":  0,
	"TEAM_ATTR_PORT_IFINDEX": 1,
	"TEAM_ATTR_PORT_CHANGED": 2,
	"TEAM_ATTR_PORT_LINKUP":  3,
	"TEAM_ATTR_PORT_SPEED":   4,
	"TEAM_ATTR_PORT_DUPLEX":  5,
	"TEAM_ATTR_PORT_REMOVED": 6,
	"TEAM_ATTR_PORT_MAX":     6,

	"TEAM_CMD_NOOP":          0,
	"TEAM_CMD_OPTIONS_SET":   1,
	"TEAM_CMD_OPTIONS_GET":   2,
	"TEAM_CMD_PORT_LIST_GET": 3,
	"TEAM_CMD_MAX":           3,
}

func TestConstantsMatchHeader(t *testing.T) {
	actual := map[string]int{
		"TEAM_GENL_VERSION":   TEAM_GENL_VERSION,
		"TEAM_STRING_MAX_LEN": TEAM_STRING_MAX_LEN,

		"TEAM_ATTR_UNSPEC":       TEAM_ATTR_UNSPEC,
		"TEAM_ATTR_TEAM_IFINDEX": TEAM_ATTR_TEAM_IFINDEX,
		"TEAM_ATTR_LIST_OPTION":  TEAM_ATTR_LIST_OPTION,
		"TEAM_ATTR_LIST_PORT":    TEAM_ATTR_LIST_PORT,
		"TEAM_ATTR_MAX":          TEAM_ATTR_MAX,

		"TEAM_ATTR_ITEM_OPTION_UNSPEC": TEAM_ATTR_ITEM_OPTION_UNSPEC,
		"TEAM_ATTR_ITEM_OPTION":        TEAM_ATTR_ITEM_OPTION,
		"TEAM_ATTR_ITEM_OPTION_MAX":    TEAM_ATTR_ITEM_OPTION_MAX,

		"TEAM_ATTR_OPTION_UNSPEC":       TEAM_ATTR_OPTION_UNSPEC,
		"TEAM_ATTR_OPTION_NAME":         TEAM_ATTR_OPTION_NAME,
		"TEAM_ATTR_OPTION_CHANGED":      TEAM_ATTR_OPTION_CHANGED,
		"TEAM_ATTR_OPTION_TYPE":         TEAM_ATTR_OPTION_TYPE,
		"TEAM_ATTR_OPTION_DATA":         TEAM_ATTR_OPTION_DATA,
		"TEAM_ATTR_OPTION_REMOVED":      TEAM_ATTR_OPTION_REMOVED,
		"TEAM_ATTR_OPTION_PORT_IFINDEX": TEAM_ATTR_OPTION_PORT_IFINDEX,
		"TEAM_ATTR_OPTION_ARRAY_INDEX":  TEAM_ATTR_OPTION_ARRAY_INDEX,
		"TEAM_ATTR_OPTION_MAX":          TEAM_ATTR_OPTION_MAX,

		"TEAM_ATTR_ITEM_PORT_UNSPEC": TEAM_ATTR_ITEM_PORT_UNSPEC,
		"TEAM_ATTR_ITEM_PORT":        TEAM_ATTR_ITEM_PORT,
		"TEAM_ATTR_ITEM_PORT_MAX":    TEAM_ATTR_ITEM_PORT_MAX,

		"TEAM_ATTR_PORT_UNSPEC":  TEAM_ATTR_PORT_UNSPEC,
		"TEAM_ATTR_PORT_IFINDEX": TEAM_ATTR_PORT_IFINDEX,
		"TEAM_ATTR_PORT_CHANGED": TEAM_ATTR_PORT_CHANGED,
		"TEAM_ATTR_PORT_LINKUP":  TEAM_ATTR_PORT_LINKUP,
		"TEAM_ATTR_PORT_SPEED":   TEAM_ATTR_PORT_SPEED,
		"TEAM_ATTR_PORT_DUPLEX":  TEAM_ATTR_PORT_DUPLEX,
		"TEAM_ATTR_PORT_REMOVED": TEAM_ATTR_PORT_REMOVED,
		"TEAM_ATTR_PORT_MAX":     TEAM_ATTR_PORT_MAX,

		"TEAM_CMD_NOOP":          TEAM_CMD_NOOP,
		"TEAM_CMD_OPTIONS_SET":   TEAM_CMD_OPTIONS_SET,
		"TEAM_CMD_OPTIONS_GET":   TEAM_CMD_OPTIONS_GET,
		"TEAM_CMD_PORT_LIST_GET": TEAM_CMD_PORT_LIST_GET,
		"TEAM_CMD_MAX":           TEAM_CMD_MAX,
	}
	if diff := cmp.Diff(golden, actual); diff != "" {
		t.Errorf("constants differ from if_team.h (-want +got):\n%s", diff)
	}
}

func TestStringConstants(t *testing.T) {
	assert.Equal(t, []byte("team"), []byte(TEAM_GENL_NAME))
	assert.Equal(t, []byte("change_event"), []byte(TEAM_GENL_CHANGE_EVENT_MC_GRP_NAME))
}

// The name tables list exactly the real members, so each table's size is
// the enumeration's MAX and its keys run from 1 to MAX.
func TestMaxEqualsMemberCount(t *testing.T) {
	tables := []struct {
		name  string
		max   int
		names map[uint16]string
	}{
		{"TEAM_ATTR", TEAM_ATTR_MAX, TEAM_ATTR_itoa},
		{"TEAM_ATTR_ITEM_OPTION", TEAM_ATTR_ITEM_OPTION_MAX, TEAM_ATTR_ITEM_OPTION_itoa},
		{"TEAM_ATTR_OPTION", TEAM_ATTR_OPTION_MAX, TEAM_ATTR_OPTION_itoa},
		{"TEAM_ATTR_ITEM_PORT", TEAM_ATTR_ITEM_PORT_MAX, TEAM_ATTR_ITEM_PORT_itoa},
		{"TEAM_ATTR_PORT", TEAM_ATTR_PORT_MAX, TEAM_ATTR_PORT_itoa},
	}
	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Len(t, table.names, table.max)
			for i := 1; i <= table.max; i++ {
				assert.Contains(t, table.names, uint16(i))
			}
		})
	}

	assert.Len(t, TEAM_CMD_itoa, TEAM_CMD_MAX+1) // NOOP is a real command
	for i := 0; i <= TEAM_CMD_MAX; i++ {
		assert.Contains(t, TEAM_CMD_itoa, uint8(i))
	}
}
