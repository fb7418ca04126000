package team

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/hkwi/nlteam"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// withTeam runs fn in a fresh network namespace holding team0 with two
// dummy ports.
func withTeam(t *testing.T, fn func(ctx context.Context, client *Client, team netlink.Link, ports []netlink.Link)) {
	if os.Geteuid() != 0 {
		t.Skip("needs root to create network namespaces")
	}
	// namespace switches apply to the calling thread only
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origin, err := netns.Get()
	require.NoError(t, err)
	defer origin.Close()
	ns, err := netns.New()
	require.NoError(t, err)
	defer ns.Close()
	defer netns.Set(origin)

	teamLink := &netlink.GenericLink{
		LinkAttrs: netlink.LinkAttrs{Name: "team0"},
		LinkType:  "team",
	}
	if err := netlink.LinkAdd(teamLink); err != nil {
		t.Skipf("team driver unavailable: %v", err)
	}
	teamDev, err := netlink.LinkByName("team0")
	require.NoError(t, err)

	var ports []netlink.Link
	for _, name := range []string{"dummy0", "dummy1"} {
		require.NoError(t, netlink.LinkAdd(&netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: name}}))
		port, err := netlink.LinkByName(name)
		require.NoError(t, err)
		require.NoError(t, netlink.LinkSetMasterByIndex(port, teamDev.Attrs().Index))
		ports = append(ports, port)
	}

	client, err := NewClient()
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, client, teamDev, ports)
}

func TestClientPorts(t *testing.T) {
	withTeam(t, func(ctx context.Context, client *Client, team netlink.Link, ports []netlink.Link) {
		got, err := client.Ports(ctx, uint32(team.Attrs().Index))
		require.NoError(t, err)

		var indexes []uint32
		for _, p := range got {
			indexes = append(indexes, p.Ifindex)
		}
		assert.ElementsMatch(t, []uint32{
			uint32(ports[0].Attrs().Index),
			uint32(ports[1].Attrs().Index),
		}, indexes)
	})
}

func TestClientOptions(t *testing.T) {
	withTeam(t, func(ctx context.Context, client *Client, team netlink.Link, ports []netlink.Link) {
		ifindex := uint32(team.Attrs().Index)
		opts, err := client.Options(ctx, ifindex)
		require.NoError(t, err)
		require.NotEmpty(t, opts)

		mode, err := client.Option(ctx, ifindex, "mode", 0, nil)
		require.NoError(t, err)
		assert.Equal(t, OptionTypeString, mode.Type)

		port := uint32(ports[0].Attrs().Index)
		enabled, err := client.Option(ctx, ifindex, "enabled", port, nil)
		require.NoError(t, err)
		assert.Equal(t, OptionTypeBool, enabled.Type)

		_, err = client.Option(ctx, ifindex, "no_such_option", 0, nil)
		assert.Equal(t, nlteam.NLE_OBJ_NOTFOUND, errors.Cause(err))

		rejoin, err := client.Option(ctx, ifindex, "mcast_rejoin_count", 0, nil)
		require.NoError(t, err)
		rejoin.Value = uint32(7)
		require.NoError(t, client.SetOptions(ctx, ifindex, rejoin))

		rejoin, err = client.Option(ctx, ifindex, "mcast_rejoin_count", 0, nil)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), rejoin.Value)

		assert.Equal(t, nlteam.NLE_INVAL, errors.Cause(client.SetOptions(ctx, ifindex)))
	})
}

func TestClientWatch(t *testing.T) {
	withTeam(t, func(ctx context.Context, client *Client, team netlink.Link, ports []netlink.Link) {
		ifindex := uint32(team.Attrs().Index)
		watchCtx, stop := context.WithCancel(ctx)
		events, err := client.Watch(watchCtx, ifindex)
		require.NoError(t, err)

		require.NoError(t, client.SetOptions(ctx, ifindex, Option{
			Name:  "mcast_rejoin_interval",
			Type:  OptionTypeU32,
			Value: uint32(50),
		}))

	wait:
		for {
			select {
			case ev := <-events:
				assert.Equal(t, ifindex, ev.Ifindex)
				for _, opt := range ev.Options {
					if opt.Name == "mcast_rejoin_interval" && opt.Changed {
						assert.Equal(t, uint32(50), opt.Value)
						break wait
					}
				}
			case <-ctx.Done():
				t.Fatal("no change event")
			}
		}

		stop()
		for range events {
		}
	})
}
