//go:build linux

package nlteam

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

type GenlMessage struct {
	Header  unix.NlMsghdr
	Genl    GenlMsghdr
	Payload []byte // fixed header + attributes
	Group   uint32 // multicast group id, 0 for unicast
	Error   error
}

// GenlListener receives multicast messages. GenlListen is called from the
// hub's receive goroutine and must not block on the hub itself.
type GenlListener interface {
	GenlListen(GenlMessage)
}

type groupKey struct {
	Family string
	Group  string
}

// GenlHub shares one generic netlink socket between concurrent requests and
// multicast listeners.
type GenlHub struct {
	router    *router
	registry  *genlRegistry
	lock      sync.Mutex
	multicast map[groupKey][]GenlListener
	log       *logrus.Entry
}

func toGenlMessage(msg Message) GenlMessage {
	ret := GenlMessage{
		Header:  msg.Header,
		Payload: msg.Data,
	}
	switch msg.Header.Type {
	case unix.NLMSG_ERROR, unix.NLMSG_DONE, unix.NLMSG_NOOP, unix.NLMSG_OVERRUN:
		return ret
	}
	if genl, err := ParseGenlMsghdr(msg.Data); err != nil {
		ret.Error = err
	} else {
		ret.Genl = genl
		ret.Payload = msg.Data[GENL_HDRLEN:]
	}
	return ret
}

func NewGenlHub() (*GenlHub, error) {
	log := logrus.WithField("component", "genl-hub")
	sock := NlSocketAlloc()
	if err := GenlConnect(sock); err != nil {
		return nil, err
	}
	// change events of busy teams come in bursts
	if err := NlSocketSetBufferSize(sock, 1<<20, 0); err != nil {
		log.WithError(err).Debug("receive buffer size")
	}
	if err := NlSocketSetOption(sock, unix.NETLINK_PKTINFO, true); err != nil {
		NlSocketFree(sock)
		return nil, errors.Wrap(err, "NETLINK_PKTINFO")
	}
	for _, opt := range []int{unix.NETLINK_EXT_ACK, unix.NETLINK_CAP_ACK} {
		if err := NlSocketSetOption(sock, opt, true); err != nil {
			log.WithError(err).Debug("extended ack unavailable")
		}
	}

	self := &GenlHub{
		registry:  newGenlRegistry(log),
		multicast: make(map[groupKey][]GenlListener),
		log:       log,
	}
	self.router = newRouter(sock, log, self.dispatch)

	res, err := self.Sync(context.Background(), GENL_CTRL_NAME, CTRL_CMD_GETFAMILY, unix.NLM_F_DUMP, nil, nil)
	if err != nil {
		self.Close()
		return nil, errors.Wrap(err, "genl family dump")
	}
	for _, msg := range res {
		self.registry.GenlListen(msg)
	}
	if err := self.Add(context.Background(), GENL_CTRL_NAME, GENL_CTRL_NOTIFY_NAME, self.registry); err != nil {
		log.WithError(err).Warn("controller notifications unavailable")
	}
	return self, nil
}

func (self *GenlHub) dispatch(msg Message, group uint32, err error) {
	if err != nil {
		self.lock.Lock()
		var all []GenlListener
		for _, listeners := range self.multicast {
			all = append(all, listeners...)
		}
		self.lock.Unlock()

		for _, listener := range all {
			listener.GenlListen(GenlMessage{Error: err})
		}
		return
	}

	switch msg.Header.Type {
	case unix.NLMSG_DONE, unix.NLMSG_NOOP, unix.NLMSG_ERROR, unix.NLMSG_OVERRUN:
		// families close each event skb with a DONE that inherits its group
		return
	}

	var groups []GenlGroup
	if group != 0 {
		if grp := self.registry.groupById(group); grp != nil {
			groups = append(groups, *grp)
		}
	} else {
		groups = self.registry.familyGroups(msg.Header.Type)
	}
	gmsg := toGenlMessage(msg)
	gmsg.Group = group
	for _, grp := range groups {
		self.lock.Lock()
		listeners := self.multicast[groupKey{Family: grp.Family, Group: grp.Name}]
		self.lock.Unlock()

		for _, listener := range listeners {
			listener.GenlListen(gmsg)
		}
	}
}

// Family returns the registered family, asking the controller for it by
// name when it is not known yet. The kernel loads the family module on such
// a request if it can.
func (self *GenlHub) Family(ctx context.Context, name string) (*GenlFamily, error) {
	if family := self.registry.familyByName(name); family != nil {
		return family, nil
	}
	res, err := self.Sync(ctx, GENL_CTRL_NAME, CTRL_CMD_GETFAMILY, 0, nil, AttrList{
		Attr{
			Header: unix.NlAttr{Type: CTRL_ATTR_FAMILY_NAME},
			Value:  name,
		},
	})
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, errors.Wrapf(NLE_OBJ_NOTFOUND, "genl family %q", name)
		}
		return nil, errors.Wrapf(err, "genl family %q", name)
	}
	for _, msg := range res {
		self.registry.GenlListen(msg)
	}
	if family := self.registry.familyByName(name); family != nil {
		return family, nil
	}
	return nil, errors.Wrapf(NLE_OBJ_NOTFOUND, "genl family %q", name)
}

func (self *GenlHub) Group(ctx context.Context, family, name string) (*GenlGroup, error) {
	if grp := self.registry.groupByName(family, name); grp != nil {
		return grp, nil
	}
	if _, err := self.Family(ctx, family); err != nil {
		return nil, err
	}
	if grp := self.registry.groupByName(family, name); grp != nil {
		return grp, nil
	}
	return nil, errors.Wrapf(NLE_OBJ_NOTFOUND, "genl group %s/%s", family, name)
}

func (self *GenlHub) send(ctx context.Context, family string, cmd uint8, flags uint16, payload []byte, attr AttrList) (uint32, *pending, error) {
	var familyInfo *GenlFamily
	if family == GENL_CTRL_NAME {
		familyInfo = self.registry.familyByName(family)
	} else if f, err := self.Family(ctx, family); err != nil {
		return 0, nil, err
	} else {
		familyInfo = f
	}

	msg := make([]byte, GENL_HDRLEN+NLMSG_ALIGN(int(familyInfo.Hdrsize)))
	copy(msg, GenlMsghdr{
		Cmd:     cmd,
		Version: uint8(familyInfo.Version),
	}.Bytes())
	copy(msg[GENL_HDRLEN:], payload)
	msg = append(msg, attr.Bytes()...)

	seq, p, err := self.router.request(familyInfo.Id, flags, msg)
	if err == nil {
		self.log.WithField("family", family).WithField("cmd", cmd).WithField("seq", seq).Debug("request sent")
	}
	return seq, p, err
}

// Sync sends a message and waits for all of its replies. Acknowledgements
// are consumed; a kernel error is returned as *AckError.
func (self *GenlHub) Sync(ctx context.Context, family string, cmd uint8, flags uint16, payload []byte, attr AttrList) ([]GenlMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, p, err := self.send(ctx, family, cmd, flags, payload, attr)
	if err != nil {
		return nil, err
	}
	msgs, err := self.router.collect(ctx, seq, p)
	var ret []GenlMessage
	for _, msg := range msgs {
		gmsg := toGenlMessage(msg)
		if gmsg.Error != nil && err == nil {
			err = gmsg.Error
		}
		ret = append(ret, gmsg)
	}
	return ret, err
}

// Add registers a multicast listener, joining the group with the first one.
func (self *GenlHub) Add(ctx context.Context, family, group string, listener GenlListener) error {
	// resolved before locking; resolution waits on the receive goroutine
	groupInfo, err := self.Group(ctx, family, group)
	if err != nil {
		return err
	}

	self.lock.Lock()
	defer self.lock.Unlock()

	key := groupKey{
		Family: family,
		Group:  group,
	}
	if len(self.multicast[key]) == 0 {
		if err := NlSocketAddMembership(self.router.sock, int(groupInfo.Id)); err != nil {
			return errors.Wrapf(err, "join %s/%s", family, group)
		}
	}
	self.multicast[key] = append(self.multicast[key], listener)
	return nil
}

func (self *GenlHub) Remove(family, group string, listener GenlListener) error {
	groupInfo := self.registry.groupByName(family, group)

	self.lock.Lock()
	defer self.lock.Unlock()

	key := groupKey{
		Family: family,
		Group:  group,
	}
	var active []GenlListener
	for _, li := range self.multicast[key] {
		if li != listener {
			active = append(active, li)
		}
	}
	self.multicast[key] = active

	if len(active) == 0 {
		delete(self.multicast, key)
		if groupInfo == nil {
			return errors.Wrapf(NLE_OBJ_NOTFOUND, "genl group %s/%s", family, group)
		} else if err := NlSocketDropMembership(self.router.sock, int(groupInfo.Id)); err != nil {
			return errors.Wrapf(err, "leave %s/%s", family, group)
		}
	}
	return nil
}

func (self *GenlHub) Close() error {
	return self.router.close()
}
