//go:build linux

package team

import (
	"context"
	"sync"

	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Client issues team family commands over a GenlHub.
type Client struct {
	hub *nlteam.GenlHub
	own bool
	log *logrus.Entry
}

// NewClient opens a dedicated generic netlink socket.
func NewClient() (*Client, error) {
	hub, err := nlteam.NewGenlHub()
	if err != nil {
		return nil, err
	}
	client := NewClientWithHub(hub)
	client.own = true
	return client, nil
}

// NewClientWithHub shares an existing hub; Close leaves the hub open.
func NewClientWithHub(hub *nlteam.GenlHub) *Client {
	return &Client{
		hub: hub,
		log: logrus.WithField("family", TEAM_GENL_NAME),
	}
}

func (self *Client) Close() error {
	if self.own {
		return self.hub.Close()
	}
	return nil
}

func ifindexAttr(ifindex uint32) nlteam.Attr {
	return nlteam.Attr{
		Header: unix.NlAttr{Type: TEAM_ATTR_TEAM_IFINDEX},
		Value:  ifindex,
	}
}

func (self *Client) get(ctx context.Context, cmd uint8, ifindex uint32) ([]Event, error) {
	msgs, err := self.hub.Sync(ctx, TEAM_GENL_NAME, cmd, 0, nil, nlteam.AttrList{ifindexAttr(ifindex)})
	if err != nil {
		return nil, err
	}
	var ret []Event
	for _, msg := range msgs {
		ev, err := Decode(msg)
		if err != nil {
			return nil, err
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

// Options lists every option instance of the team device.
func (self *Client) Options(ctx context.Context, ifindex uint32) ([]Option, error) {
	events, err := self.get(ctx, TEAM_CMD_OPTIONS_GET, ifindex)
	if err != nil {
		return nil, errors.Wrapf(err, "options of team %d", ifindex)
	}
	var ret []Option
	for _, ev := range events {
		ret = append(ret, ev.Options...)
	}
	return ret, nil
}

// Option looks up one option instance. port 0 addresses the team-wide
// instance and a nil arrayIndex a non-array option.
func (self *Client) Option(ctx context.Context, ifindex uint32, name string, port uint32, arrayIndex *uint32) (Option, error) {
	opts, err := self.Options(ctx, ifindex)
	if err != nil {
		return Option{}, err
	}
	for _, opt := range opts {
		if opt.Matches(name, port, arrayIndex) {
			return opt, nil
		}
	}
	return Option{}, errors.Wrapf(nlteam.NLE_OBJ_NOTFOUND, "option %s of team %d", name, ifindex)
}

// SetOptions changes options in one TEAM_CMD_OPTIONS_SET request. Every
// option is validated before anything is sent.
func (self *Client) SetOptions(ctx context.Context, ifindex uint32, opts ...Option) error {
	if len(opts) == 0 {
		return errors.Wrap(nlteam.NLE_INVAL, "no options to set")
	}
	var items nlteam.AttrList
	for _, opt := range opts {
		attrs, err := opt.Attrs()
		if err != nil {
			return err
		}
		items = append(items, nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_ITEM_OPTION},
			Value:  attrs,
		})
	}
	_, err := self.hub.Sync(ctx, TEAM_GENL_NAME, TEAM_CMD_OPTIONS_SET, 0, nil, nlteam.AttrList{
		ifindexAttr(ifindex),
		nlteam.Attr{
			Header: unix.NlAttr{Type: TEAM_ATTR_LIST_OPTION},
			Value:  items,
		},
	})
	if err != nil {
		return errors.Wrapf(err, "set options of team %d", ifindex)
	}
	self.log.WithField("ifindex", ifindex).WithField("count", len(opts)).Debug("options set")
	return nil
}

// Ports lists the ports of the team device.
func (self *Client) Ports(ctx context.Context, ifindex uint32) ([]Port, error) {
	events, err := self.get(ctx, TEAM_CMD_PORT_LIST_GET, ifindex)
	if err != nil {
		return nil, errors.Wrapf(err, "ports of team %d", ifindex)
	}
	var ret []Port
	for _, ev := range events {
		ret = append(ret, ev.Ports...)
	}
	return ret, nil
}

// Watch streams change_event notifications of the team device, or of all
// team devices when ifindex is 0. The channel is closed once ctx is done.
// Events are dropped, with a warning, while the channel is full.
func (self *Client) Watch(ctx context.Context, ifindex uint32) (<-chan Event, error) {
	w := &watcher{
		ch:      make(chan Event, 64),
		ifindex: ifindex,
		log:     self.log.WithField("ifindex", ifindex),
	}
	if err := self.hub.Add(ctx, TEAM_GENL_NAME, TEAM_GENL_CHANGE_EVENT_MC_GRP_NAME, w); err != nil {
		return nil, errors.Wrap(err, "subscribe team change events")
	}
	go func() {
		<-ctx.Done()
		if err := self.hub.Remove(TEAM_GENL_NAME, TEAM_GENL_CHANGE_EVENT_MC_GRP_NAME, w); err != nil {
			w.log.WithError(err).Debug("unsubscribe")
		}
		w.close()
	}()
	return w.ch, nil
}

type watcher struct {
	lock    sync.Mutex
	closed  bool
	ch      chan Event
	ifindex uint32
	log     *logrus.Entry
}

func (self *watcher) GenlListen(msg nlteam.GenlMessage) {
	if msg.Error != nil {
		self.log.WithError(msg.Error).Warn("team events may have been lost")
		return
	}
	switch msg.Header.Type {
	case unix.NLMSG_DONE, unix.NLMSG_NOOP, unix.NLMSG_ERROR, unix.NLMSG_OVERRUN:
		return
	}
	ev, err := Decode(msg)
	if err != nil {
		entry := self.log.WithError(err)
		if attrs, perr := TeamPolicy.Parse(msg.Payload); perr == nil {
			entry = entry.WithField("attrs", TeamPolicy.Dump(attrs))
		}
		entry.Warn("undecodable team event")
		return
	}
	if self.ifindex != 0 && ev.Ifindex != self.ifindex {
		return
	}

	self.lock.Lock()
	defer self.lock.Unlock()
	if self.closed {
		return
	}
	select {
	case self.ch <- ev:
	default:
		self.log.WithField("cmd", ev.CmdName()).Warn("team event dropped, consumer too slow")
	}
}

func (self *watcher) close() {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.closed = true
	close(self.ch)
}
