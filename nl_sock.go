//go:build linux

package nlteam

import (
	"encoding/binary"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// socket.c

const (
	NL_SOCK_BUFSIZE_SET = 1 << iota
	NL_SOCK_PASSCRED
	NL_OWN_PORT
	NL_MSG_PEEK
	NL_NO_AUTO_ACK
)

// NlSock is a netlink socket. The descriptor is non-blocking and driven by the
// runtime poller, so NlSocketFree unblocks a pending NlRecv.
type NlSock struct {
	Local   unix.SockaddrNetlink
	Peer    unix.SockaddrNetlink
	Fd      int
	SeqNext uint32
	Flags   int // NL_NO_AUTO_ACK etc.,

	file *os.File
	conn syscall.RawConn
}

func NlSocketAlloc() *NlSock {
	return &NlSock{
		Fd: -1,
		Local: unix.SockaddrNetlink{
			Family: unix.AF_NETLINK,
		},
		Peer: unix.SockaddrNetlink{
			Family: unix.AF_NETLINK,
		},
		SeqNext: uint32(time.Now().Unix()),
	}
}

// NlSocketFree closes the socket. It is safe to call while another goroutine
// is blocked in NlRecv, which then returns an error. Later socket option
// calls fail with NLE_BAD_SOCK.
func NlSocketFree(sk *NlSock) error {
	fd := sk.Fd
	sk.Fd = -1
	if sk.file != nil {
		return sk.file.Close()
	}
	if fd >= 0 {
		return unix.Close(fd)
	}
	return nil
}

// setsockoptInt goes through the runtime poller once connected, so a freed
// socket fails instead of reaching whatever reuses its descriptor number.
func setsockoptInt(sk *NlSock, level, option, value int) error {
	if sk.conn == nil {
		if sk.Fd < 0 {
			return NLE_BAD_SOCK
		}
		return unix.SetsockoptInt(sk.Fd, level, option, value)
	}
	var serr error
	if err := sk.conn.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), level, option, value)
	}); err != nil {
		return errors.Wrap(NLE_BAD_SOCK, err.Error())
	}
	return serr
}

func NlSocketSetBufferSize(sk *NlSock, rxbuf, txbuf int) error {
	if rxbuf <= 0 {
		rxbuf = 32768
	}
	if txbuf <= 0 {
		txbuf = 32768
	}
	if err := setsockoptInt(sk, unix.SOL_SOCKET, unix.SO_SNDBUF, txbuf); err != nil {
		return errors.Wrap(err, "SO_SNDBUF")
	}
	if err := setsockoptInt(sk, unix.SOL_SOCKET, unix.SO_RCVBUF, rxbuf); err != nil {
		return errors.Wrap(err, "SO_RCVBUF")
	}
	sk.Flags |= NL_SOCK_BUFSIZE_SET
	return nil
}

// NlConnect opens and binds the socket. A zero local port lets the kernel
// pick one; the assigned port is read back into sk.Local.
func NlConnect(sk *NlSock, protocol int) error {
	if sk.Fd != -1 {
		return NLE_BAD_SOCK
	}
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, protocol)
	if err != nil {
		return errors.Wrap(err, "socket")
	}
	if err := unix.Bind(fd, &sk.Local); err != nil {
		unix.Close(fd)
		return errors.Wrap(err, "bind")
	}
	if sa, err := unix.Getsockname(fd); err != nil {
		unix.Close(fd)
		return errors.Wrap(err, "getsockname")
	} else if local, ok := sa.(*unix.SockaddrNetlink); ok {
		sk.Local = *local
	}

	file := os.NewFile(uintptr(fd), "netlink")
	conn, err := file.SyscallConn()
	if err != nil {
		file.Close()
		return errors.Wrap(err, "netlink socket")
	}
	sk.Fd, sk.file, sk.conn = fd, file, conn
	return nil
}

// NlSocketSetOption turns a SOL_NETLINK boolean option on or off,
// e.g. unix.NETLINK_PKTINFO or unix.NETLINK_EXT_ACK.
func NlSocketSetOption(sk *NlSock, option int, on bool) error {
	value := 0
	if on {
		value = 1
	}
	return setsockoptInt(sk, unix.SOL_NETLINK, option, value)
}

func NlSocketAddMembership(sk *NlSock, group int) error {
	return setsockoptInt(sk, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, group)
}

func NlSocketDropMembership(sk *NlSock, group int) error {
	return setsockoptInt(sk, unix.SOL_NETLINK, unix.NETLINK_DROP_MEMBERSHIP, group)
}

// msg.c

const NL_AUTO_PORT = 0
const NL_AUTO_SEQ = 0

func NlSendSimple(sk *NlSock, family uint16, flags uint16, buf []byte) error {
	msg := Message{
		Header: unix.NlMsghdr{
			Type:  family,
			Flags: flags,
		},
		Data: buf,
	}
	NlCompleteMsg(sk, &msg.Header)
	return nlSend(sk, msg.Bytes())
}

func nlSend(sk *NlSock, buf []byte) error {
	if sk.conn == nil {
		return NLE_BAD_SOCK
	}
	var serr error
	if err := sk.conn.Write(func(fd uintptr) bool {
		serr = unix.Sendto(int(fd), buf, 0, &sk.Peer)
		return serr != unix.EAGAIN
	}); err != nil {
		return err
	}
	return errors.Wrap(serr, "sendto")
}

// NlRecv reads one datagram. group is the multicast group it was delivered
// through (NETLINK_PKTINFO), or 0 for unicast and when pktinfo is off.
func NlRecv(sk *NlSock) (msgs []Message, group uint32, err error) {
	if sk.conn == nil {
		return nil, 0, NLE_BAD_SOCK
	}
	buf := make([]byte, os.Getpagesize())
	oob := make([]byte, unix.CmsgSpace(4))

	var n, oobn int
	var rerr error
	if err := sk.conn.Read(func(fd uintptr) bool {
		// peek for the datagram size, so multipart replies are never truncated
		n, _, _, _, rerr = unix.Recvmsg(int(fd), buf, nil, unix.MSG_PEEK|unix.MSG_TRUNC)
		if rerr == unix.EAGAIN {
			return false
		}
		if rerr != nil {
			return true
		}
		if n > len(buf) {
			buf = make([]byte, NLMSG_ALIGN(n))
		}
		n, oobn, _, _, rerr = unix.Recvmsg(int(fd), buf, oob, 0)
		return rerr != unix.EAGAIN
	}); err != nil {
		return nil, 0, err
	}
	if rerr != nil {
		return nil, 0, errors.Wrap(rerr, "recvmsg")
	}

	if oobn > 0 {
		if scms, err := unix.ParseSocketControlMessage(oob[:oobn]); err == nil {
			for _, scm := range scms {
				if scm.Header.Level == unix.SOL_NETLINK && scm.Header.Type == unix.NETLINK_PKTINFO && len(scm.Data) >= 4 {
					group = binary.NativeEndian.Uint32(scm.Data)
				}
			}
		}
	}
	msgs, err = ParseMessages(buf[:n])
	return msgs, group, err
}

// nl.c

func NlCompleteMsg(sk *NlSock, hdr *unix.NlMsghdr) {
	if hdr.Pid == NL_AUTO_PORT {
		hdr.Pid = sk.Local.Pid
	}
	if hdr.Seq == NL_AUTO_SEQ {
		hdr.Seq = sk.SeqNext
		sk.SeqNext++
		if sk.SeqNext == NL_AUTO_SEQ {
			sk.SeqNext++
		}
	}
	hdr.Flags |= unix.NLM_F_REQUEST
	if sk.Flags&NL_NO_AUTO_ACK == 0 {
		hdr.Flags |= unix.NLM_F_ACK
	}
}
