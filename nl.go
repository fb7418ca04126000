//go:build linux

// Package nlteam implements netlink library routines for the team generic
// netlink family.
//
// The core follows libnl concepts (sockets, attribute policies, generic
// netlink controller). For the basic ideas, have a look at the libnl
// documentation http://www.infradead.org/~tgr/libnl/ .
package nlteam

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

func align(size, tick int) int {
	return (size + tick - 1) &^ (tick - 1)
}

func NLMSG_ALIGN(size int) int {
	return align(size, unix.NLMSG_ALIGNTO)
}

func NLA_ALIGN(size int) int {
	return align(size, unix.NLA_ALIGNTO)
}

var NLA_HDRLEN int = NLA_ALIGN(unix.SizeofNlAttr)

// Attr represents single netlink attribute package.
// Value holds the decoded payload; nested attributes decode to AttrList.
type Attr struct {
	Header unix.NlAttr
	Value  interface{}
}

func (self Attr) Field() uint16 {
	return self.Header.Type & NLA_TYPE_MASK
}

func (self Attr) netOrder() bool {
	return self.Header.Type&unix.NLA_F_NET_BYTEORDER != 0
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (self Attr) order() byteOrder {
	if self.netOrder() {
		return binary.BigEndian
	}
	return binary.NativeEndian
}

// Bytes encodes the attribute, padded to NLA_ALIGNTO. The wire type is chosen
// from the Go type of Value. A false bool is an absent flag and encodes to nil.
func (self Attr) Bytes() []byte {
	var payload []byte
	hdrType := self.Header.Type &^ unix.NLA_F_NESTED
	order := self.order()

	switch v := self.Value.(type) {
	case uint8:
		payload = []byte{v}
	case int8:
		payload = []byte{uint8(v)}
	case uint16:
		payload = order.AppendUint16(nil, v)
	case int16:
		payload = order.AppendUint16(nil, uint16(v))
	case uint32:
		payload = order.AppendUint32(nil, v)
	case int32:
		payload = order.AppendUint32(nil, uint32(v))
	case uint64:
		payload = order.AppendUint64(nil, v)
	case int64:
		payload = order.AppendUint64(nil, uint64(v))
	case string:
		payload = []byte(v)
		if len(payload) == 0 || payload[len(payload)-1] != 0 {
			payload = append(payload, 0) // NULL-termination
		}
	case []byte:
		payload = v
	case bool:
		if !v {
			return nil
		}
	case AttrList:
		hdrType |= unix.NLA_F_NESTED
		payload = v.Bytes()
	case nil:
	default:
		panic(fmt.Sprintf("nlteam: unsupported attribute value %T", self.Value))
	}

	length := unix.SizeofNlAttr + len(payload)
	buf := make([]byte, NLA_ALIGN(length))
	binary.NativeEndian.PutUint16(buf[0:], uint16(length))
	binary.NativeEndian.PutUint16(buf[2:], hdrType)
	copy(buf[NLA_HDRLEN:], payload)
	return buf
}

type AttrList []Attr

func (self AttrList) Get(field uint16) interface{} {
	for _, attr := range []Attr(self) {
		if attr.Field() == field {
			return attr.Value
		}
	}
	return nil
}

// Has reports presence, which is what matters for NLA_FLAG attributes.
func (self AttrList) Has(field uint16) bool {
	for _, attr := range []Attr(self) {
		if attr.Field() == field {
			return true
		}
	}
	return false
}

func (self AttrList) Bytes() []byte {
	var ret []byte
	for _, attr := range []Attr(self) {
		ret = append(ret, attr.Bytes()...)
	}
	return ret
}

type Policy interface {
	Parse([]byte) (AttrList, error)
}

const NLA_TYPE_MASK = ^uint16(unix.NLA_F_NESTED | unix.NLA_F_NET_BYTEORDER)

// SimplePolicy represents non-nested netlink attribute policy.
// The values follow the kernel's NLA_* numbering.
type SimplePolicy uint16

const (
	NLA_UNSPEC SimplePolicy = iota
	NLA_U8
	NLA_U16
	NLA_U32
	NLA_U64
	NLA_STRING
	NLA_FLAG
	NLA_MSECS
	NLA_NESTED
	NLA_NESTED_COMPAT
	NLA_NUL_STRING
	NLA_BINARY
	NLA_S8
	NLA_S16
	NLA_S32
	NLA_S64
)

var simplePolicyNames = map[SimplePolicy]string{
	NLA_UNSPEC:        "unspec",
	NLA_U8:            "u8",
	NLA_U16:           "u16",
	NLA_U32:           "u32",
	NLA_U64:           "u64",
	NLA_STRING:        "string",
	NLA_FLAG:          "flag",
	NLA_MSECS:         "msecs",
	NLA_NESTED:        "nested",
	NLA_NESTED_COMPAT: "nested_compat",
	NLA_NUL_STRING:    "nul_string",
	NLA_BINARY:        "binary",
	NLA_S8:            "s8",
	NLA_S16:           "s16",
	NLA_S32:           "s32",
	NLA_S64:           "s64",
}

func (self SimplePolicy) String() string {
	if name, ok := simplePolicyNames[self]; ok {
		return name
	}
	return fmt.Sprintf("nla(%d)", uint16(self))
}

func (self SimplePolicy) Parse(nla []byte) (AttrList, error) {
	if attr, err := self.ParseOne(nla); err != nil {
		return nil, err
	} else {
		return []Attr{attr}, nil
	}
}

func scalarSize(policy SimplePolicy) int {
	switch policy {
	case NLA_U8, NLA_S8:
		return 1
	case NLA_U16, NLA_S16:
		return 2
	case NLA_U32, NLA_S32:
		return 4
	case NLA_U64, NLA_S64, NLA_MSECS:
		return 8
	}
	return 0
}

// ParseOne decodes the attribute at the head of nla.
func (self SimplePolicy) ParseOne(nla []byte) (attr Attr, err error) {
	if len(nla) < NLA_HDRLEN {
		err = NLE_RANGE
		return
	}
	attr.Header = unix.NlAttr{
		Len:  binary.NativeEndian.Uint16(nla[0:]),
		Type: binary.NativeEndian.Uint16(nla[2:]),
	}
	hlen := int(attr.Header.Len)
	if hlen < unix.SizeofNlAttr || hlen > len(nla) {
		err = NLE_RANGE
		return
	}
	data := nla[NLA_HDRLEN:hlen]
	if size := scalarSize(self); size > 0 && len(data) < size {
		err = NLE_RANGE
		return
	}
	order := attr.order()

	switch self {
	default:
		err = NLE_INVAL
	case NLA_U8:
		attr.Value = data[0]
	case NLA_S8:
		attr.Value = int8(data[0])
	case NLA_U16:
		attr.Value = order.Uint16(data)
	case NLA_S16:
		attr.Value = int16(order.Uint16(data))
	case NLA_U32:
		attr.Value = order.Uint32(data)
	case NLA_S32:
		attr.Value = int32(order.Uint32(data))
	case NLA_U64, NLA_MSECS:
		attr.Value = order.Uint64(data)
	case NLA_S64:
		attr.Value = int64(order.Uint64(data))
	case NLA_STRING:
		attr.Value = string(data)
	case NLA_BINARY:
		attr.Value = data
	case NLA_FLAG:
		attr.Value = true
	case NLA_NUL_STRING:
		attr.Value = string(bytes.Split(data, []byte{0})[0])
	}
	return
}

func NlaStringRemoveNul(a string) string {
	return strings.Split(a, "\x00")[0]
}

func NlaStringEquals(a, b string) bool {
	return NlaStringRemoveNul(a) == NlaStringRemoveNul(b)
}

// nextAttr returns the header of the attribute at the head of buf, checked
// against the buffer bounds.
func nextAttr(buf []byte) (unix.NlAttr, error) {
	hdr := unix.NlAttr{
		Len:  binary.NativeEndian.Uint16(buf[0:]),
		Type: binary.NativeEndian.Uint16(buf[2:]),
	}
	if int(hdr.Len) < unix.SizeofNlAttr || int(hdr.Len) > len(buf) {
		return hdr, NLE_RANGE
	}
	return hdr, nil
}

func advance(buf []byte, hdr unix.NlAttr) []byte {
	if n := NLA_ALIGN(int(hdr.Len)); n < len(buf) {
		return buf[n:]
	}
	return nil
}

// ListPolicy parses an array of attributes that share the same policy.
type ListPolicy struct {
	Nested Policy
}

func (self ListPolicy) Parse(buf []byte) (AttrList, error) {
	var ret []Attr

	for len(buf) >= NLA_HDRLEN {
		hdr, err := nextAttr(buf)
		if err != nil {
			return nil, err
		}
		switch policy := self.Nested.(type) {
		case SimplePolicy:
			if attr, err := policy.ParseOne(buf); err != nil {
				return nil, err
			} else {
				ret = append(ret, attr)
			}
		default:
			if attrs, err := self.Nested.Parse(buf[NLA_HDRLEN:hdr.Len]); err != nil {
				return nil, err
			} else {
				ret = append(ret, Attr{
					Header: hdr,
					Value:  attrs,
				})
			}
		}
		buf = advance(buf, hdr)
	}
	return ret, nil
}

func (self ListPolicy) Dump(attrs AttrList) string {
	var comps []string
	for _, attr := range []Attr(attrs) {
		field := attr.Field()
		switch policy := self.Nested.(type) {
		default:
			comps = append(comps, fmt.Sprintf("%d: %#v", field, attr.Value))
		case MapPolicy:
			comps = append(comps, fmt.Sprintf("%d: %s", field, policy.Dump(attr.Value.(AttrList))))
		case ListPolicy:
			comps = append(comps, fmt.Sprintf("%d: %s", field, policy.Dump(attr.Value.(AttrList))))
		}
	}
	return fmt.Sprintf("[%s]", strings.Join(comps, ", "))
}

var binList Policy = ListPolicy{Nested: NLA_BINARY}

// MapPolicy parses a set of distinct attributes, each by its own rule.
// Fields without a rule are kept as raw bytes, or as a binary list when nested.
type MapPolicy struct {
	Prefix string
	Names  map[uint16]string
	Rule   map[uint16]Policy
}

func (self MapPolicy) Parse(buf []byte) (AttrList, error) {
	var ret []Attr

	for len(buf) >= NLA_HDRLEN {
		hdr, err := nextAttr(buf)
		if err != nil {
			return nil, err
		}
		attr := Attr{Header: hdr}
		if p, ok := self.Rule[hdr.Type&NLA_TYPE_MASK]; ok {
			switch policy := p.(type) {
			case SimplePolicy:
				if fattr, err := policy.ParseOne(buf); err != nil {
					return nil, err
				} else {
					attr = fattr
				}
			default:
				if attrs, err := p.Parse(buf[NLA_HDRLEN:hdr.Len]); err != nil {
					return nil, err
				} else {
					attr.Value = attrs
				}
			}
		} else if hdr.Type&unix.NLA_F_NESTED == 0 {
			attr.Value = buf[NLA_HDRLEN:hdr.Len]
		} else if attrs, err := binList.Parse(buf[NLA_HDRLEN:hdr.Len]); err != nil {
			return nil, err
		} else {
			attr.Value = attrs
		}
		ret = append(ret, attr)
		buf = advance(buf, hdr)
	}
	return ret, nil
}

func (self MapPolicy) Dump(attrs AttrList) string {
	var comps []string
	for _, attr := range []Attr(attrs) {
		field := attr.Field()
		name := "?"
		if n, ok := self.Names[field]; ok {
			name = n
		}
		if p, ok := self.Rule[field]; ok {
			switch policy := p.(type) {
			default:
				comps = append(comps, fmt.Sprintf("%s: %#v", name, attr.Value))
			case MapPolicy:
				comps = append(comps, fmt.Sprintf("%s: %s", name, policy.Dump(attr.Value.(AttrList))))
			case ListPolicy:
				comps = append(comps, fmt.Sprintf("%s: %s", name, policy.Dump(attr.Value.(AttrList))))
			}
		}
	}
	return fmt.Sprintf("%s(%s)", self.Prefix, strings.Join(comps, ", "))
}

// Message is a single netlink message with its payload after the header.
type Message struct {
	Header unix.NlMsghdr
	Data   []byte
}

// ParseMessages splits a datagram into netlink messages.
func ParseMessages(buf []byte) ([]Message, error) {
	var msgs []Message
	for len(buf) >= unix.NLMSG_HDRLEN {
		hdr := unix.NlMsghdr{
			Len:   binary.NativeEndian.Uint32(buf[0:]),
			Type:  binary.NativeEndian.Uint16(buf[4:]),
			Flags: binary.NativeEndian.Uint16(buf[6:]),
			Seq:   binary.NativeEndian.Uint32(buf[8:]),
			Pid:   binary.NativeEndian.Uint32(buf[12:]),
		}
		if int(hdr.Len) < unix.NLMSG_HDRLEN || int(hdr.Len) > len(buf) {
			return nil, NLE_MSG_TOOSHORT
		}
		msgs = append(msgs, Message{
			Header: hdr,
			Data:   buf[unix.NLMSG_HDRLEN:hdr.Len],
		})
		if n := NLMSG_ALIGN(int(hdr.Len)); n < len(buf) {
			buf = buf[n:]
		} else {
			break
		}
	}
	return msgs, nil
}

// Bytes encodes the message; Header.Len is computed from Data.
func (self Message) Bytes() []byte {
	buf := make([]byte, unix.NLMSG_HDRLEN+NLMSG_ALIGN(len(self.Data)))
	binary.NativeEndian.PutUint32(buf[0:], uint32(unix.NLMSG_HDRLEN+len(self.Data)))
	binary.NativeEndian.PutUint16(buf[4:], self.Header.Type)
	binary.NativeEndian.PutUint16(buf[6:], self.Header.Flags)
	binary.NativeEndian.PutUint32(buf[8:], self.Header.Seq)
	binary.NativeEndian.PutUint32(buf[12:], self.Header.Pid)
	copy(buf[unix.NLMSG_HDRLEN:], self.Data)
	return buf
}
