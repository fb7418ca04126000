//go:build linux

// teamnl is a command line client of the team generic netlink family.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hkwi/nlteam"
	"github.com/hkwi/nlteam/rtlink"
	"github.com/hkwi/nlteam/team"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	output   string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "teamnl:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "teamnl",
		Short:         "Query and configure team devices over generic netlink",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetOutput(os.Stderr)
			_, err = newPrinter(opts.output, cmd.OutOrStdout())
			return err
		},
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, json or yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warning", "log level")

	root.AddCommand(
		newPortsCommand(opts),
		newOptionsCommand(opts),
		newGetOptionCommand(opts),
		newSetOptionCommand(opts),
		newMonitorCommand(opts),
	)
	return root
}

// session bundles the sockets one command needs.
type session struct {
	rt   *nlteam.RtHub
	team *team.Client
}

func openSession() (*session, error) {
	rt, err := nlteam.NewRtHub()
	if err != nil {
		return nil, errors.Wrap(err, "rtnetlink")
	}
	client, err := team.NewClient()
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "generic netlink")
	}
	return &session{rt: rt, team: client}, nil
}

func (self *session) Close() {
	self.team.Close()
	self.rt.Close()
}

// teamIndex resolves a team device name.
func (self *session) teamIndex(ctx context.Context, name string) (uint32, error) {
	link, err := rtlink.GetByName(ctx, self.rt, name)
	if err != nil {
		return 0, err
	}
	return teamLinkIndex(link)
}

// rtnetlink link kind of team devices, IFLA_INFO_KIND
const teamKind = "team"

func teamLinkIndex(link rtlink.Link) (uint32, error) {
	if link.Kind != teamKind {
		return 0, errors.Errorf("%s is not a team device (kind %q)", link.Name, link.Kind)
	}
	return uint32(link.Index), nil
}

// portIndex resolves an optional port device name; "" is the team itself.
func (self *session) portIndex(ctx context.Context, name string) (uint32, error) {
	if name == "" {
		return 0, nil
	}
	link, err := rtlink.GetByName(ctx, self.rt, name)
	if err != nil {
		return 0, err
	}
	return uint32(link.Index), nil
}

// linkName names an ifindex, falling back to the number for vanished links.
func (self *session) linkName(ctx context.Context, index uint32) string {
	link, err := rtlink.GetByIndex(ctx, self.rt, int(index))
	if err != nil {
		logrus.WithError(err).Debug("link name lookup")
		return fmt.Sprintf("%d", index)
	}
	return link.Name
}
