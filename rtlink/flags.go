//go:build linux

package rtlink

import (
	"strings"

	"golang.org/x/sys/unix"
)

type IFF uint32

const (
	IFF_UP          IFF = unix.IFF_UP
	IFF_BROADCAST   IFF = unix.IFF_BROADCAST
	IFF_DEBUG       IFF = unix.IFF_DEBUG
	IFF_LOOPBACK    IFF = unix.IFF_LOOPBACK
	IFF_POINTOPOINT IFF = unix.IFF_POINTOPOINT
	IFF_NOTRAILERS  IFF = unix.IFF_NOTRAILERS
	IFF_RUNNING     IFF = unix.IFF_RUNNING
	IFF_NOARP       IFF = unix.IFF_NOARP
	IFF_PROMISC     IFF = unix.IFF_PROMISC
	IFF_ALLMULTI    IFF = unix.IFF_ALLMULTI
	IFF_MASTER      IFF = unix.IFF_MASTER
	IFF_SLAVE       IFF = unix.IFF_SLAVE
	IFF_MULTICAST   IFF = unix.IFF_MULTICAST
	IFF_PORTSEL     IFF = unix.IFF_PORTSEL
	IFF_AUTOMEDIA   IFF = unix.IFF_AUTOMEDIA
	IFF_DYNAMIC     IFF = unix.IFF_DYNAMIC
	IFF_LOWER_UP    IFF = unix.IFF_LOWER_UP
	IFF_DORMANT     IFF = unix.IFF_DORMANT
	IFF_ECHO        IFF = unix.IFF_ECHO
)

// bit order
var names = []string{
	"UP",
	"BROADCAST",
	"DEBUG",
	"LOOPBACK",
	"POINTOPOINT",
	"NOTRAILERS",
	"RUNNING",
	"NOARP",
	"PROMISC",
	"ALLMULTI",
	"MASTER",
	"SLAVE",
	"MULTICAST",
	"PORTSEL",
	"AUTOMEDIA",
	"DYNAMIC",
	"LOWER_UP",
	"DORMANT",
	"ECHO",
}

func (self IFF) String() string {
	var ret []string
	for i := range names {
		if self&(1<<uint(i)) != 0 {
			ret = append(ret, names[i])
		}
	}
	return strings.Join(ret, ",")
}
