//go:build linux

package nlteam

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestAttrBytes(t *testing.T) {
	buf := Attr{Header: unix.NlAttr{Type: 1}, Value: "team"}.Bytes()
	require.Len(t, buf, 12) // 4 header + "team\x00" padded to 8
	assert.Equal(t, uint16(9), binary.NativeEndian.Uint16(buf[0:]))
	assert.Equal(t, uint16(1), binary.NativeEndian.Uint16(buf[2:]))
	assert.Equal(t, []byte("team\x00\x00\x00\x00"), buf[4:])

	assert.Nil(t, Attr{Header: unix.NlAttr{Type: 2}, Value: false}.Bytes())

	flag := Attr{Header: unix.NlAttr{Type: 2}, Value: true}.Bytes()
	assert.Equal(t, uint16(unix.SizeofNlAttr), binary.NativeEndian.Uint16(flag[0:]))

	nested := Attr{Header: unix.NlAttr{Type: 3}, Value: AttrList{
		{Header: unix.NlAttr{Type: 1}, Value: uint32(7)},
	}}.Bytes()
	assert.Equal(t, uint16(3|unix.NLA_F_NESTED), binary.NativeEndian.Uint16(nested[2:]))
	assert.Len(t, nested, 12)

	assert.Panics(t, func() {
		Attr{Header: unix.NlAttr{Type: 1}, Value: 1.5}.Bytes()
	})
}

func TestAttrNetByteOrder(t *testing.T) {
	attr := Attr{Header: unix.NlAttr{Type: 1 | unix.NLA_F_NET_BYTEORDER}, Value: uint16(0x0102)}
	buf := attr.Bytes()
	assert.Equal(t, []byte{0x01, 0x02}, buf[4:6])

	parsed, err := NLA_U16.ParseOne(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), parsed.Value)
	assert.Equal(t, uint16(1), parsed.Field())
}

func TestSimplePolicyParse(t *testing.T) {
	cases := []struct {
		policy SimplePolicy
		value  interface{}
		want   interface{}
	}{
		{NLA_U8, uint8(0xfe), uint8(0xfe)},
		{NLA_S8, int8(-2), int8(-2)},
		{NLA_U16, uint16(0xbeef), uint16(0xbeef)},
		{NLA_U32, uint32(0xdeadbeef), uint32(0xdeadbeef)},
		{NLA_S32, int32(-42), int32(-42)},
		{NLA_U64, uint64(1) << 40, uint64(1) << 40},
		{NLA_S64, int64(-1) << 40, int64(-1) << 40},
		{NLA_STRING, "abc", "abc\x00"},
		{NLA_NUL_STRING, "abc", "abc"},
		{NLA_BINARY, []byte{1, 2, 3}, []byte{1, 2, 3}},
		{NLA_FLAG, true, true},
	}
	for _, c := range cases {
		t.Run(c.policy.String(), func(t *testing.T) {
			buf := Attr{Header: unix.NlAttr{Type: 5}, Value: c.value}.Bytes()
			attr, err := c.policy.ParseOne(buf)
			require.NoError(t, err)
			assert.Equal(t, c.want, attr.Value)
		})
	}

	// a u32 attribute carrying two bytes
	short := Attr{Header: unix.NlAttr{Type: 5}, Value: uint16(1)}.Bytes()
	_, err := NLA_U32.ParseOne(short)
	assert.Equal(t, NLE_RANGE, err)

	// length beyond the buffer
	long := Attr{Header: unix.NlAttr{Type: 5}, Value: uint32(1)}.Bytes()
	binary.NativeEndian.PutUint16(long[0:], 64)
	_, err = NLA_U32.ParseOne(long)
	assert.Equal(t, NLE_RANGE, err)

	_, err = NLA_U32.ParseOne([]byte{1, 2})
	assert.Equal(t, NLE_RANGE, err)
}

func TestMapPolicyParse(t *testing.T) {
	policy := MapPolicy{
		Prefix: "TEST",
		Names:  map[uint16]string{1: "NAME", 2: "LIST"},
		Rule: map[uint16]Policy{
			1: NLA_NUL_STRING,
			2: ListPolicy{Nested: NLA_U32},
		},
	}
	buf := AttrList{
		{Header: unix.NlAttr{Type: 1}, Value: "eth0"},
		{Header: unix.NlAttr{Type: 2}, Value: AttrList{
			{Header: unix.NlAttr{Type: 1}, Value: uint32(10)},
			{Header: unix.NlAttr{Type: 2}, Value: uint32(20)},
		}},
		{Header: unix.NlAttr{Type: 9}, Value: []byte{0xaa}},
	}.Bytes()

	attrs, err := policy.Parse(buf)
	require.NoError(t, err)
	require.Len(t, attrs, 3)
	assert.Equal(t, "eth0", attrs.Get(1))
	list, ok := attrs.Get(2).(AttrList)
	require.True(t, ok)
	var values []interface{}
	for _, a := range list {
		values = append(values, a.Value)
	}
	assert.Equal(t, []interface{}{uint32(10), uint32(20)}, values)
	assert.Equal(t, []byte{0xaa}, attrs.Get(9))
	assert.True(t, attrs.Has(9))
	assert.False(t, attrs.Has(4))
	assert.Nil(t, attrs.Get(4))

	assert.Equal(t, `TEST(NAME: "eth0", LIST: [1: 0xa, 2: 0x14])`, policy.Dump(attrs))

	_, err = policy.Parse(buf[:len(buf)-4])
	assert.Equal(t, NLE_RANGE, err)
}

func TestNlaString(t *testing.T) {
	assert.Equal(t, "abc", NlaStringRemoveNul("abc\x00\x00"))
	assert.Equal(t, "abc", NlaStringRemoveNul("abc"))
	assert.True(t, NlaStringEquals("team\x00", "team"))
	assert.False(t, NlaStringEquals("team0", "team"))
}

func TestParseMessages(t *testing.T) {
	first := Message{
		Header: unix.NlMsghdr{Type: 0x20, Flags: unix.NLM_F_MULTI, Seq: 7, Pid: 99},
		Data:   []byte{1, 2, 3},
	}
	second := Message{
		Header: unix.NlMsghdr{Type: unix.NLMSG_DONE, Flags: unix.NLM_F_MULTI, Seq: 7, Pid: 99},
		Data:   []byte{0, 0, 0, 0},
	}
	buf := append(first.Bytes(), second.Bytes()...)
	require.Len(t, buf, 2*unix.NLMSG_HDRLEN+8)

	msgs, err := ParseMessages(buf)
	require.NoError(t, err)

	first.Header.Len = unix.NLMSG_HDRLEN + 3
	second.Header.Len = unix.NLMSG_HDRLEN + 4
	if diff := cmp.Diff([]Message{first, second}, msgs); diff != "" {
		t.Errorf("messages (-want +got):\n%s", diff)
	}

	_, err = ParseMessages(buf[:unix.NLMSG_HDRLEN+2])
	assert.Equal(t, NLE_MSG_TOOSHORT, err)
}

func errorMessage(code int32, flags uint16, tail []byte) Message {
	data := make([]byte, unix.SizeofNlMsgerr)
	binary.NativeEndian.PutUint32(data[0:], uint32(code))
	binary.NativeEndian.PutUint32(data[4:], uint32(unix.SizeofNlMsgerr-4)) // echoed request length
	return Message{
		Header: unix.NlMsghdr{Type: unix.NLMSG_ERROR, Flags: flags, Seq: 3},
		Data:   append(data, tail...),
	}
}

func TestParseAck(t *testing.T) {
	assert.NoError(t, ParseAck(errorMessage(0, 0, nil)))

	err := ParseAck(errorMessage(-int32(unix.ENOENT), 0, nil))
	require.Error(t, err)
	var ack *AckError
	require.True(t, errors.As(err, &ack))
	assert.Equal(t, unix.ENOENT, ack.Errno)
	assert.True(t, errors.Is(err, unix.ENOENT))
	assert.Equal(t, unix.ENOENT, errors.Cause(err))

	extack := AttrList{
		{Header: unix.NlAttr{Type: unix.NLMSGERR_ATTR_MSG}, Value: "Unknown option"},
	}.Bytes()
	err = ParseAck(errorMessage(-int32(unix.EINVAL), unix.NLM_F_ACK_TLVS|unix.NLM_F_CAPPED, extack))
	require.True(t, errors.As(err, &ack))
	assert.Equal(t, "Unknown option", ack.Message)
	assert.Contains(t, err.Error(), "Unknown option")

	assert.Equal(t, NLE_MSG_TOOSHORT, ParseAck(Message{Data: []byte{1}}))
}

func testRouter() *router {
	return &router{
		unicast: make(map[uint32]*pending),
		closed:  make(chan struct{}),
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
}

func addPending(r *router, seq uint32) *pending {
	p := &pending{
		ch:   make(chan Message, 1),
		done: make(chan struct{}),
	}
	r.unicast[seq] = p
	return p
}

func TestRouterCollectsMultipart(t *testing.T) {
	r := testRouter()
	notified := make(chan Message, 1)
	r.multicast = func(msg Message, group uint32, err error) {
		notified <- msg
	}
	p := addPending(r, 5)

	go func() {
		r.feed(Message{Header: unix.NlMsghdr{Type: 0x20, Seq: 5, Flags: unix.NLM_F_MULTI}}, 0)
		r.feed(Message{Header: unix.NlMsghdr{Type: 0x20, Seq: 0}}, 0) // notification
		r.feed(Message{Header: unix.NlMsghdr{Type: 0x20, Seq: 5, Flags: unix.NLM_F_MULTI}}, 0)
		r.feed(Message{Header: unix.NlMsghdr{Type: unix.NLMSG_DONE, Seq: 5, Flags: unix.NLM_F_MULTI}}, 0)
		r.feed(errorMessage(0, 0, nil), 0) // trailing ack of seq 3, unrouted
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := r.collect(ctx, 5, p)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Empty(t, r.unicast)
	assert.Equal(t, uint32(0), (<-notified).Header.Seq)
}

func TestRouterErrorAck(t *testing.T) {
	r := testRouter()
	p := addPending(r, 3)
	go r.feed(errorMessage(-int32(unix.EPERM), 0, nil), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.collect(ctx, 3, p)
	assert.True(t, errors.Is(err, unix.EPERM))
}

func TestRouterFailAll(t *testing.T) {
	r := testRouter()
	p := addPending(r, 8)
	r.failAll(NLE_BAD_SOCK)

	_, err := r.collect(context.Background(), 8, p)
	assert.Equal(t, NLE_BAD_SOCK, err)
	assert.Empty(t, r.unicast)
}

func TestRouterCancel(t *testing.T) {
	r := testRouter()
	p := addPending(r, 9)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.collect(ctx, 9, p)
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, r.unicast)

	// a late reply must not block the receive loop
	r.unicast[9] = p
	r.feed(Message{Header: unix.NlMsghdr{Type: 0x20, Seq: 9}}, 0)
	r.feed(Message{Header: unix.NlMsghdr{Type: 0x20, Seq: 9}}, 0)
}
