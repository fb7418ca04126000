//go:build linux

package nlteam

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type GenlFamily struct {
	Id      uint16
	Name    string
	Version uint32
	Hdrsize uint32
}

func (self *GenlFamily) FromAttrs(attrs AttrList) {
	if t := attrs.Get(CTRL_ATTR_FAMILY_ID); t != nil {
		self.Id = t.(uint16)
	}
	if t := attrs.Get(CTRL_ATTR_FAMILY_NAME); t != nil {
		self.Name = NlaStringRemoveNul(t.(string))
	}
	if t := attrs.Get(CTRL_ATTR_VERSION); t != nil {
		self.Version = t.(uint32)
	}
	if t := attrs.Get(CTRL_ATTR_HDRSIZE); t != nil {
		self.Hdrsize = t.(uint32)
	}
}

type GenlGroup struct {
	Id     uint32
	Family string
	Name   string
}

// GroupsFromAttrs lists the multicast groups of a CTRL_ATTR_MCAST_GROUPS
// attribute. Family is left for the caller to fill.
func GroupsFromAttrs(attrs AttrList) []GenlGroup {
	var ret []GenlGroup
	if grps, ok := attrs.Get(CTRL_ATTR_MCAST_GROUPS).(AttrList); ok {
		for _, grp := range []Attr(grps) {
			gattr, ok := grp.Value.(AttrList)
			if !ok {
				continue
			}
			id, ok1 := gattr.Get(CTRL_ATTR_MCAST_GRP_ID).(uint32)
			name, ok2 := gattr.Get(CTRL_ATTR_MCAST_GRP_NAME).(string)
			if !ok1 || !ok2 {
				continue
			}
			ret = append(ret, GenlGroup{
				Id:   id,
				Name: NlaStringRemoveNul(name),
			})
		}
	}
	return ret
}

// genlRegistry mirrors the generic netlink controller state. It is seeded by
// a GETFAMILY dump and follows the controller's notify group afterwards.
type genlRegistry struct {
	lock   sync.Mutex
	family map[uint16]GenlFamily
	group  map[uint32]GenlGroup
	log    *logrus.Entry
}

func newGenlRegistry(log *logrus.Entry) *genlRegistry {
	return &genlRegistry{
		family: map[uint16]GenlFamily{
			GENL_ID_CTRL: {
				Id:      GENL_ID_CTRL,
				Name:    GENL_CTRL_NAME,
				Version: CTRL_VERSION,
			},
		},
		group: make(map[uint32]GenlGroup),
		log:   log,
	}
}

func (self *genlRegistry) GenlListen(msg GenlMessage) {
	if msg.Error != nil || msg.Header.Type != GENL_ID_CTRL {
		return
	}
	attrs, err := CtrlPolicy.Parse(msg.Payload)
	if err != nil {
		self.log.WithError(err).Warn("unparsable controller message")
		return
	}
	self.update(msg.Genl.Cmd, attrs)
}

func (self *genlRegistry) update(cmd uint8, attrs AttrList) {
	family := GenlFamily{}
	family.FromAttrs(attrs)
	groups := GroupsFromAttrs(attrs)

	self.lock.Lock()
	defer self.lock.Unlock()

	switch cmd {
	case CTRL_CMD_NEWFAMILY:
		self.family[family.Id] = family
		for _, grp := range groups {
			grp.Family = family.Name
			self.group[grp.Id] = grp
		}
		self.log.WithField("family", family.Name).Debug("family registered")
	case CTRL_CMD_NEWMCAST_GRP:
		familyName := family.Name
		if rfamily, ok := self.family[family.Id]; ok {
			familyName = rfamily.Name
		}
		for _, grp := range groups {
			grp.Family = familyName
			self.group[grp.Id] = grp
		}
	case CTRL_CMD_DELFAMILY:
		if rfamily, ok := self.family[family.Id]; ok {
			delete(self.family, family.Id)
			for gid, grp := range self.group {
				if grp.Family == rfamily.Name {
					delete(self.group, gid)
				}
			}
			self.log.WithField("family", rfamily.Name).Debug("family removed")
		}
	case CTRL_CMD_DELMCAST_GRP:
		for _, grp := range groups {
			delete(self.group, grp.Id)
		}
	}
}

func (self *genlRegistry) familyByName(name string) *GenlFamily {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, f := range self.family {
		if f.Name == name {
			return &f
		}
	}
	return nil
}

func (self *genlRegistry) groupByName(family, name string) *GenlGroup {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, grp := range self.group {
		if grp.Family == family && grp.Name == name {
			return &grp
		}
	}
	return nil
}

func (self *genlRegistry) groupById(id uint32) *GenlGroup {
	self.lock.Lock()
	defer self.lock.Unlock()

	if grp, ok := self.group[id]; ok {
		return &grp
	}
	return nil
}

// familyGroups lists the groups of a family by its numeric id.
func (self *genlRegistry) familyGroups(id uint16) []GenlGroup {
	self.lock.Lock()
	defer self.lock.Unlock()

	family, ok := self.family[id]
	if !ok {
		return nil
	}
	var ret []GenlGroup
	for _, grp := range self.group {
		if grp.Family == family.Name {
			ret = append(ret, grp)
		}
	}
	return ret
}
