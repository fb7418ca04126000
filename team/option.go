//go:build linux

package team

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// OptionType is the TEAM_ATTR_OPTION_TYPE value. The team driver reuses the
// netlink attribute type codes for it.
type OptionType uint8

const (
	OptionTypeU32    = OptionType(nlteam.NLA_U32)
	OptionTypeString = OptionType(nlteam.NLA_STRING)
	OptionTypeBinary = OptionType(nlteam.NLA_BINARY)
	OptionTypeBool   = OptionType(nlteam.NLA_FLAG)
	OptionTypeS32    = OptionType(nlteam.NLA_S32)
)

var optionTypeNames = map[OptionType]string{
	OptionTypeU32:    "u32",
	OptionTypeString: "string",
	OptionTypeBinary: "binary",
	OptionTypeBool:   "bool",
	OptionTypeS32:    "s32",
}

func (self OptionType) String() string {
	if name, ok := optionTypeNames[self]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(self))
}

func (self OptionType) Valid() bool {
	_, ok := optionTypeNames[self]
	return ok
}

func ParseOptionType(name string) (OptionType, error) {
	for t, n := range optionTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(nlteam.NLE_INVAL, "option type %q", name)
}

func (self OptionType) MarshalText() ([]byte, error) {
	return []byte(self.String()), nil
}

// Option is one team option instance. Per-port options carry the port
// ifindex; array options carry an index, one Option per array item.
//
// Value holds uint32, int32, string, []byte or bool according to Type.
type Option struct {
	Name        string      `json:"name" yaml:"name"`
	Type        OptionType  `json:"type" yaml:"type"`
	Value       interface{} `json:"value" yaml:"value"`
	PortIfindex uint32      `json:"port_ifindex,omitempty" yaml:"port_ifindex,omitempty"`
	ArrayIndex  uint32      `json:"array_index,omitempty" yaml:"array_index,omitempty"`
	IsArray     bool        `json:"is_array,omitempty" yaml:"is_array,omitempty"`
	Changed     bool        `json:"changed,omitempty" yaml:"changed,omitempty"`
	Removed     bool        `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// Matches reports whether the option is the instance addressed by name,
// port and array index. A zero port selects the team-wide instance.
func (self Option) Matches(name string, port uint32, arrayIndex *uint32) bool {
	if self.Name != name || self.PortIfindex != port {
		return false
	}
	if arrayIndex == nil {
		return !self.IsArray
	}
	return self.IsArray && self.ArrayIndex == *arrayIndex
}

func (self Option) String() string {
	ret := self.Name
	if self.PortIfindex != 0 {
		ret += fmt.Sprintf(" (port:%d)", self.PortIfindex)
	}
	if self.IsArray {
		ret += fmt.Sprintf(" (arridx:%d)", self.ArrayIndex)
	}
	return ret + " " + self.Format()
}

// Format renders the value the way ParseOptionValue reads it back.
func (self Option) Format() string {
	switch v := self.Value.(type) {
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	case []byte:
		return hex.EncodeToString(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	}
	return fmt.Sprint(self.Value)
}

// ParseOptionValue converts text into the Go value used for typ.
// Binary values are hex encoded.
func ParseOptionValue(typ OptionType, text string) (interface{}, error) {
	switch typ {
	case OptionTypeU32:
		v, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return nil, errors.Wrap(nlteam.NLE_INVAL, err.Error())
		}
		return uint32(v), nil
	case OptionTypeS32:
		v, err := strconv.ParseInt(text, 0, 32)
		if err != nil {
			return nil, errors.Wrap(nlteam.NLE_INVAL, err.Error())
		}
		return int32(v), nil
	case OptionTypeString:
		if err := checkString(text); err != nil {
			return nil, err
		}
		return text, nil
	case OptionTypeBinary:
		v, err := hex.DecodeString(text)
		if err != nil {
			return nil, errors.Wrap(nlteam.NLE_INVAL, err.Error())
		}
		return v, nil
	case OptionTypeBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, errors.Wrap(nlteam.NLE_INVAL, err.Error())
		}
		return v, nil
	}
	return nil, errors.Wrapf(nlteam.NLE_INVAL, "option type %s", typ)
}

// the kernel needs the terminating NUL within TEAM_STRING_MAX_LEN
func checkString(s string) error {
	if len(s)+1 > TEAM_STRING_MAX_LEN {
		return errors.Wrapf(nlteam.NLE_RANGE, "string option value longer than %d bytes", TEAM_STRING_MAX_LEN-1)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return errors.Wrap(nlteam.NLE_INVAL, "string option value contains NUL")
	}
	return nil
}

func decodeOptionData(typ OptionType, data []byte, present bool) (interface{}, error) {
	if typ == OptionTypeBool {
		return present, nil
	}
	if !present {
		return nil, nil
	}
	switch typ {
	case OptionTypeU32:
		if len(data) < 4 {
			return nil, nlteam.NLE_RANGE
		}
		return binary.NativeEndian.Uint32(data), nil
	case OptionTypeS32:
		if len(data) < 4 {
			return nil, nlteam.NLE_RANGE
		}
		return int32(binary.NativeEndian.Uint32(data)), nil
	case OptionTypeString:
		return nlteam.NlaStringRemoveNul(string(data)), nil
	case OptionTypeBinary:
		return append([]byte(nil), data...), nil
	}
	return nil, errors.Wrapf(nlteam.NLE_INVAL, "option type %d", uint8(typ))
}

// OptionFromAttrs decodes the attributes of one TEAM_ATTR_ITEM_OPTION.
func OptionFromAttrs(attrs nlteam.AttrList) (Option, error) {
	var ret Option
	name, ok := attrs.Get(TEAM_ATTR_OPTION_NAME).(string)
	if !ok {
		return ret, errors.Wrap(nlteam.NLE_MISSING_ATTR, "option name")
	}
	ret.Name = name
	typ, ok := attrs.Get(TEAM_ATTR_OPTION_TYPE).(uint8)
	if !ok {
		return ret, errors.Wrapf(nlteam.NLE_MISSING_ATTR, "option %s type", name)
	}
	ret.Type = OptionType(typ)
	ret.Changed = attrs.Has(TEAM_ATTR_OPTION_CHANGED)
	ret.Removed = attrs.Has(TEAM_ATTR_OPTION_REMOVED)
	if v, ok := attrs.Get(TEAM_ATTR_OPTION_PORT_IFINDEX).(uint32); ok {
		ret.PortIfindex = v
	}
	if v, ok := attrs.Get(TEAM_ATTR_OPTION_ARRAY_INDEX).(uint32); ok {
		ret.ArrayIndex = v
		ret.IsArray = true
	}

	var data []byte
	present := attrs.Has(TEAM_ATTR_OPTION_DATA)
	if present {
		data, _ = attrs.Get(TEAM_ATTR_OPTION_DATA).([]byte)
	}
	value, err := decodeOptionData(ret.Type, data, present)
	if err != nil {
		return ret, errors.Wrapf(err, "option %s", name)
	}
	ret.Value = value
	return ret, nil
}

// Attrs encodes the option as the content of a TEAM_ATTR_ITEM_OPTION for
// TEAM_CMD_OPTIONS_SET.
func (self Option) Attrs() (nlteam.AttrList, error) {
	if self.Name == "" {
		return nil, errors.Wrap(nlteam.NLE_MISSING_ATTR, "option name")
	}
	if len(self.Name)+1 > TEAM_STRING_MAX_LEN {
		return nil, errors.Wrapf(nlteam.NLE_RANGE, "option name %q", self.Name)
	}
	if !self.Type.Valid() {
		return nil, errors.Wrapf(nlteam.NLE_INVAL, "option %s type %d", self.Name, uint8(self.Type))
	}

	var data interface{}
	switch self.Type {
	case OptionTypeU32:
		v, ok := self.Value.(uint32)
		if !ok {
			return nil, typeMismatch(self)
		}
		data = v
	case OptionTypeS32:
		v, ok := self.Value.(int32)
		if !ok {
			return nil, typeMismatch(self)
		}
		data = v
	case OptionTypeString:
		v, ok := self.Value.(string)
		if !ok {
			return nil, typeMismatch(self)
		}
		if err := checkString(v); err != nil {
			return nil, errors.Wrapf(err, "option %s", self.Name)
		}
		data = v
	case OptionTypeBinary:
		v, ok := self.Value.([]byte)
		if !ok {
			return nil, typeMismatch(self)
		}
		data = v
	case OptionTypeBool:
		v, ok := self.Value.(bool)
		if !ok {
			return nil, typeMismatch(self)
		}
		data = v // a false flag is left out
	}

	ret := nlteam.AttrList{
		nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_OPTION_NAME},
			Value:  self.Name,
		},
		nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_OPTION_TYPE},
			Value:  uint8(self.Type),
		},
		nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_OPTION_DATA},
			Value:  data,
		},
	}
	if self.PortIfindex != 0 {
		ret = append(ret, nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_OPTION_PORT_IFINDEX},
			Value:  self.PortIfindex,
		})
	}
	if self.IsArray {
		ret = append(ret, nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_OPTION_ARRAY_INDEX},
			Value:  self.ArrayIndex,
		})
	}
	return ret, nil
}

func typeMismatch(opt Option) error {
	return errors.Wrapf(nlteam.NLE_INVAL, "option %s: %T value for type %s", opt.Name, opt.Value, opt.Type)
}
