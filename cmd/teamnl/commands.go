//go:build linux

package main

import (
	"github.com/hkwi/nlteam/rtlink"
	"github.com/hkwi/nlteam/team"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// instanceFlags address one instance of a per-port or array option.
type instanceFlags struct {
	port       string
	arrayIndex int64
}

func (self *instanceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&self.port, "port", "p", "", "port device of a per-port option")
	cmd.Flags().Int64VarP(&self.arrayIndex, "array-index", "a", -1, "item of an array option")
}

func (self *instanceFlags) index() *uint32 {
	if self.arrayIndex < 0 {
		return nil
	}
	v := uint32(self.arrayIndex)
	return &v
}

func newPortsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports DEV",
		Short: "List the ports of a team device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(opts.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ifindex, err := s.teamIndex(ctx, args[0])
			if err != nil {
				return err
			}
			ports, err := s.team.Ports(ctx, ifindex)
			if err != nil {
				return err
			}
			var views []portView
			for _, p := range ports {
				view := portView{Port: p, Name: s.linkName(ctx, p.Ifindex)}
				if link, err := rtlink.GetByIndex(ctx, s.rt, int(p.Ifindex)); err == nil {
					view.Flags = portFlags(link)
				}
				views = append(views, view)
			}
			return out.ports(views)
		},
	}
}

func newOptionsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "options DEV",
		Short: "List the options of a team device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(opts.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ifindex, err := s.teamIndex(ctx, args[0])
			if err != nil {
				return err
			}
			options, err := s.team.Options(ctx, ifindex)
			if err != nil {
				return err
			}
			var views []optionView
			for _, o := range options {
				view := optionView{Option: o}
				if o.PortIfindex != 0 {
					view.Port = s.linkName(ctx, o.PortIfindex)
				}
				views = append(views, view)
			}
			return out.options(views)
		},
	}
}

func newGetOptionCommand(opts *globalOptions) *cobra.Command {
	inst := &instanceFlags{}
	cmd := &cobra.Command{
		Use:   "getoption DEV NAME",
		Short: "Print the value of one option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := newPrinter(opts.output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ifindex, err := s.teamIndex(ctx, args[0])
			if err != nil {
				return err
			}
			port, err := s.portIndex(ctx, inst.port)
			if err != nil {
				return err
			}
			opt, err := s.team.Option(ctx, ifindex, args[1], port, inst.index())
			if err != nil {
				return err
			}
			return out.value(opt)
		},
	}
	inst.bind(cmd)
	return cmd
}

func newSetOptionCommand(opts *globalOptions) *cobra.Command {
	inst := &instanceFlags{}
	cmd := &cobra.Command{
		Use:   "setoption DEV NAME VALUE",
		Short: "Change the value of one option",
		Long: "Change the value of one option. The value is read according to the\n" +
			"option's current type; binary values are hex encoded.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ifindex, err := s.teamIndex(ctx, args[0])
			if err != nil {
				return err
			}
			port, err := s.portIndex(ctx, inst.port)
			if err != nil {
				return err
			}
			current, err := s.team.Option(ctx, ifindex, args[1], port, inst.index())
			if err != nil {
				return err
			}
			value, err := team.ParseOptionValue(current.Type, args[2])
			if err != nil {
				return errors.Wrapf(err, "value for %s", current.Name)
			}
			next := current
			next.Value = value
			if err := s.team.SetOptions(ctx, ifindex, next); err != nil {
				return err
			}
			logrus.WithField("option", next.Name).WithField("value", next.Format()).Info("option set")
			return nil
		},
	}
	inst.bind(cmd)
	return cmd
}
