//go:build linux

package nlteam

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// RtHub is a NETLINK_ROUTE socket shared by concurrent requests.
type RtHub struct {
	router *router
}

func NewRtHub() (*RtHub, error) {
	sock := NlSocketAlloc()
	if err := NlConnect(sock, unix.NETLINK_ROUTE); err != nil {
		return nil, err
	}
	if err := NlSocketSetOption(sock, unix.NETLINK_EXT_ACK, true); err != nil {
		logrus.WithError(err).Debug("extended ack unavailable")
	}
	return &RtHub{
		router: newRouter(sock, logrus.WithField("component", "rt-hub"), nil),
	}, nil
}

// Sync sends a request and waits for its replies. payload is the fixed header
// of the message type, zero-padded to its size.
func (self *RtHub) Sync(ctx context.Context, cmd uint16, flags uint16, payload []byte, attr AttrList) ([]Message, error) {
	var msg []byte
	switch cmd {
	case unix.RTM_NEWLINK, unix.RTM_DELLINK, unix.RTM_GETLINK, unix.RTM_SETLINK:
		msg = make([]byte, NLMSG_ALIGN(unix.SizeofIfInfomsg))
	case unix.RTM_NEWADDR, unix.RTM_DELADDR, unix.RTM_GETADDR:
		msg = make([]byte, NLMSG_ALIGN(unix.SizeofIfAddrmsg))
	case unix.RTM_NEWROUTE, unix.RTM_DELROUTE, unix.RTM_GETROUTE:
		msg = make([]byte, NLMSG_ALIGN(unix.SizeofRtMsg))
	default:
		return nil, errors.Wrapf(NLE_MSGTYPE_NOSUPPORT, "rtnetlink message type %d", cmd)
	}
	copy(msg, payload)
	msg = append(msg, attr.Bytes()...)

	seq, p, err := self.router.request(cmd, flags, msg)
	if err != nil {
		return nil, err
	}
	return self.router.collect(ctx, seq, p)
}

func (self *RtHub) Close() error {
	return self.router.close()
}
