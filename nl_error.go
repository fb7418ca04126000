//go:build linux

package nlteam

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// error.h

type NlError int

// Values are those of libnl, gaps included, so codes can be compared with
// libnl output.
const (
	NLE_SUCCESS           NlError = 0
	NLE_FAILURE           NlError = 1
	NLE_BAD_SOCK          NlError = 3
	NLE_AGAIN             NlError = 4
	NLE_EXIST             NlError = 6
	NLE_INVAL             NlError = 7
	NLE_RANGE             NlError = 8
	NLE_OPNOTSUPP         NlError = 10
	NLE_OBJ_NOTFOUND      NlError = 12
	NLE_MISSING_ATTR      NlError = 14
	NLE_SEQ_MISMATCH      NlError = 16
	NLE_MSG_OVERFLOW      NlError = 17
	NLE_MSG_TRUNC         NlError = 18
	NLE_MSG_TOOSHORT      NlError = 21
	NLE_MSGTYPE_NOSUPPORT NlError = 22
	NLE_PARSE_ERR         NlError = 30
	NLE_NODEV             NlError = 31
)

func (self NlError) Error() string {
	switch self {
	default:
		return "Unspecific failure"
	case NLE_SUCCESS:
		return "Success"
	case NLE_BAD_SOCK:
		return "Bad socket"
	case NLE_AGAIN:
		return "Try again"
	case NLE_EXIST:
		return "Object exists"
	case NLE_INVAL:
		return "Invalid input data or parameter"
	case NLE_RANGE:
		return "Input data out of range"
	case NLE_OPNOTSUPP:
		return "Operation not supported"
	case NLE_OBJ_NOTFOUND:
		return "Object not found"
	case NLE_MISSING_ATTR:
		return "Missing attribute"
	case NLE_SEQ_MISMATCH:
		return "Message sequence number mismatch"
	case NLE_MSG_OVERFLOW:
		return "Kernel reported message overflow"
	case NLE_MSG_TRUNC:
		return "Kernel reported truncated message"
	case NLE_MSG_TOOSHORT:
		return "Netlink message is too short"
	case NLE_MSGTYPE_NOSUPPORT:
		return "Netlink message type is not supported"
	case NLE_PARSE_ERR:
		return "Unable to parse object"
	case NLE_NODEV:
		return "No such device"
	}
}

// AckError is a NLMSG_ERROR reply carrying a non-zero error code.
type AckError struct {
	Errno   unix.Errno
	Message string // NLMSGERR_ATTR_MSG extended ack, if any
	Header  unix.NlMsghdr
}

func (self *AckError) Error() string {
	if self.Message != "" {
		return fmt.Sprintf("netlink: %s: %s", self.Errno.Error(), self.Message)
	}
	return fmt.Sprintf("netlink: %s", self.Errno.Error())
}

func (self *AckError) Unwrap() error {
	return self.Errno
}

// Cause makes errors.Cause from github.com/pkg/errors stop at the errno.
func (self *AckError) Cause() error {
	return self.Errno
}

var extAckPolicy = MapPolicy{
	Prefix: "NLMSGERR_ATTR",
	Names: map[uint16]string{
		unix.NLMSGERR_ATTR_MSG:  "MSG",
		unix.NLMSGERR_ATTR_OFFS: "OFFS",
	},
	Rule: map[uint16]Policy{
		unix.NLMSGERR_ATTR_MSG:  NLA_NUL_STRING,
		unix.NLMSGERR_ATTR_OFFS: NLA_U32,
	},
}

// ParseAck decodes the payload of an NLMSG_ERROR message. It returns nil for
// a plain acknowledgement.
func ParseAck(msg Message) error {
	if len(msg.Data) < unix.SizeofNlMsgerr {
		return NLE_MSG_TOOSHORT
	}
	code := int32(binary.NativeEndian.Uint32(msg.Data[0:]))
	if code == 0 {
		return nil
	}
	ret := &AckError{
		Errno:  unix.Errno(-code),
		Header: msg.Header,
	}
	if msg.Header.Flags&unix.NLM_F_ACK_TLVS != 0 {
		// the original request is echoed unless NLM_F_CAPPED
		offset := unix.SizeofNlMsgerr
		if msg.Header.Flags&unix.NLM_F_CAPPED == 0 {
			reqLen := int(binary.NativeEndian.Uint32(msg.Data[4:]))
			offset = 4 + NLMSG_ALIGN(reqLen)
		}
		if offset < len(msg.Data) {
			if attrs, err := extAckPolicy.Parse(msg.Data[offset:]); err == nil {
				if m, ok := attrs.Get(unix.NLMSGERR_ATTR_MSG).(string); ok {
					ret.Message = m
				}
			}
		}
	}
	return ret
}
