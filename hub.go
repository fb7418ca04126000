//go:build linux

package nlteam

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type pending struct {
	ch   chan Message
	done chan struct{}
	err  error // set before ch is closed by failAll
}

// router owns a socket and its receive loop. Replies are routed to the
// pending request by sequence number; everything with seq 0 or a multicast
// group goes to the multicast callback.
type router struct {
	sock      *NlSock
	lock      sync.Mutex
	unicast   map[uint32]*pending
	multicast func(msg Message, group uint32, err error)
	closed    chan struct{}
	closeOnce sync.Once
	log       *logrus.Entry
}

func newRouter(sock *NlSock, log *logrus.Entry, multicast func(Message, uint32, error)) *router {
	self := &router{
		sock:      sock,
		unicast:   make(map[uint32]*pending),
		multicast: multicast,
		closed:    make(chan struct{}),
		log:       log,
	}
	go self.run()
	return self
}

func (self *router) run() {
	for {
		msgs, group, err := NlRecv(self.sock)
		if err != nil {
			select {
			case <-self.closed:
				self.failAll(NLE_BAD_SOCK)
				return
			default:
			}
			if errors.Is(err, unix.ENOBUFS) {
				self.log.Warn("socket receive buffer overrun, messages lost")
				self.failAll(errors.Wrap(NLE_MSG_OVERFLOW, "receive buffer overrun"))
				if self.multicast != nil {
					self.multicast(Message{}, 0, err)
				}
				continue
			}
			if errors.Is(err, unix.EBADF) {
				self.failAll(err)
				return
			}
			self.log.WithError(err).Warn("netlink receive failed")
			continue
		}
		for _, msg := range msgs {
			self.feed(msg, group)
		}
	}
}

func (self *router) feed(msg Message, group uint32) {
	seq := msg.Header.Seq
	if seq == 0 || group != 0 {
		if self.multicast != nil {
			self.multicast(msg, group, nil)
		}
		return
	}

	self.lock.Lock()
	p := self.unicast[seq]
	self.lock.Unlock()

	if p == nil {
		// trailing ACK after NLMSG_DONE, or a cancelled request
		self.log.WithField("seq", seq).WithField("type", msg.Header.Type).Debug("unrouted message")
		return
	}
	select {
	case p.ch <- msg:
	case <-p.done:
		return
	}
	mtype := msg.Header.Type
	if mtype == unix.NLMSG_DONE || mtype == unix.NLMSG_ERROR {
		self.lock.Lock()
		if self.unicast[seq] == p {
			delete(self.unicast, seq)
			close(p.ch)
		}
		self.lock.Unlock()
	}
}

func (self *router) failAll(err error) {
	self.lock.Lock()
	defer self.lock.Unlock()

	for seq, p := range self.unicast {
		p.err = err
		close(p.ch)
		delete(self.unicast, seq)
	}
}

func (self *router) request(msgType uint16, flags uint16, data []byte) (uint32, *pending, error) {
	select {
	case <-self.closed:
		return 0, nil, NLE_BAD_SOCK
	default:
	}
	msg := Message{
		Header: unix.NlMsghdr{
			Type:  msgType,
			Flags: flags,
		},
		Data: data,
	}
	p := &pending{
		ch:   make(chan Message, 1),
		done: make(chan struct{}),
	}

	self.lock.Lock()
	defer self.lock.Unlock()
	NlCompleteMsg(self.sock, &msg.Header)
	seq := msg.Header.Seq
	self.unicast[seq] = p
	if err := nlSend(self.sock, msg.Bytes()); err != nil {
		delete(self.unicast, seq)
		return 0, nil, err
	}
	return seq, p, nil
}

func (self *router) cancel(seq uint32, p *pending) {
	self.lock.Lock()
	defer self.lock.Unlock()

	if self.unicast[seq] == p {
		delete(self.unicast, seq)
	}
	close(p.done)
}

// collect drains the replies of one request. Acknowledgements and NLMSG_DONE
// are consumed; an error acknowledgement ends the request with *AckError.
func (self *router) collect(ctx context.Context, seq uint32, p *pending) ([]Message, error) {
	var ret []Message
	for {
		select {
		case msg, ok := <-p.ch:
			if !ok {
				return ret, p.err
			}
			switch msg.Header.Type {
			case unix.NLMSG_ERROR:
				if err := ParseAck(msg); err != nil {
					return ret, err
				}
			case unix.NLMSG_DONE, unix.NLMSG_NOOP, unix.NLMSG_OVERRUN:
			default:
				ret = append(ret, msg)
			}
		case <-ctx.Done():
			self.cancel(seq, p)
			return ret, ctx.Err()
		}
	}
}

func (self *router) close() error {
	var err error
	self.closeOnce.Do(func() {
		close(self.closed)
		err = NlSocketFree(self.sock)
	})
	return err
}
