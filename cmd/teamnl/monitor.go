//go:build linux

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hkwi/nlteam/team"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type monitorMetrics struct {
	events *prometheus.CounterVec
	linkUp *prometheus.GaugeVec
	speed  *prometheus.GaugeVec
}

func newMonitorMetrics(reg prometheus.Registerer) *monitorMetrics {
	self := &monitorMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamnl",
			Name:      "change_events_total",
			Help:      "Team change events received, by team and kind.",
		}, []string{"team", "kind"}),
		linkUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "teamnl",
			Name:      "port_link_up",
			Help:      "Port link state as reported by the team driver.",
		}, []string{"team", "port"}),
		speed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "teamnl",
			Name:      "port_speed_mbps",
			Help:      "Port speed in Mb/s as reported by the team driver.",
		}, []string{"team", "port"}),
	}
	reg.MustRegister(self.events, self.linkUp, self.speed)
	return self
}

func (self *monitorMetrics) observe(teamName string, ev team.Event, portName func(uint32) string) {
	if len(ev.Options) > 0 {
		self.events.WithLabelValues(teamName, "option").Add(float64(len(ev.Options)))
	}
	if len(ev.Ports) > 0 {
		self.events.WithLabelValues(teamName, "port").Add(float64(len(ev.Ports)))
	}
	for _, p := range ev.Ports {
		name := portName(p.Ifindex)
		if p.Removed {
			self.linkUp.DeleteLabelValues(teamName, name)
			self.speed.DeleteLabelValues(teamName, name)
			continue
		}
		up := 0.0
		if p.LinkUp {
			up = 1
		}
		self.linkUp.WithLabelValues(teamName, name).Set(up)
		self.speed.WithLabelValues(teamName, name).Set(float64(p.Speed))
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Timeout:           time.Minute,
	}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 20 * time.Second,
	}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	go func() {
		logrus.WithField("addr", addr).Info("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics server")
		}
	}()
}

func newMonitorCommand(opts *globalOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "monitor DEV|all",
		Short: "Print team change events until interrupted",
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

			var ifindex uint32
			if args[0] != "all" {
				if ifindex, err = s.teamIndex(ctx, args[0]); err != nil {
					return err
				}
			}

			var metrics *monitorMetrics
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector())
				metrics = newMonitorMetrics(reg)
				serveMetrics(ctx, metricsAddr, reg)
			}

			events, err := s.team.Watch(ctx, ifindex)
			if err != nil {
				return err
			}
			names := map[uint32]string{}
			name := func(index uint32) string {
				if n, ok := names[index]; ok {
					return n
				}
				n := s.linkName(ctx, index)
				names[index] = n
				return n
			}
			for ev := range events {
				teamName := name(ev.Ifindex)
				if metrics != nil {
					metrics.observe(teamName, ev, name)
				}
				if err := printEvent(out, teamName, ev, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-address", "", "serve Prometheus metrics on this address")
	return cmd
}

type eventView struct {
	Team  string     `json:"team" yaml:"team"`
	Cmd   string     `json:"cmd" yaml:"cmd"`
	Event team.Event `json:"event" yaml:"event"`
}

func printEvent(out *printer, teamName string, ev team.Event, name func(uint32) string) error {
	if ok, err := out.structured(eventView{Team: teamName, Cmd: ev.CmdName(), Event: ev}); ok {
		return err
	}
	for _, p := range ev.Ports {
		fmt.Fprintf(out.w, "%s: port %s: %s\n", teamName, name(p.Ifindex), p)
	}
	for _, o := range ev.Options {
		view := optionView{Option: o}
		if o.PortIfindex != 0 {
			view.Port = name(o.PortIfindex)
		}
		fmt.Fprintf(out.w, "%s: option %s\n", teamName, formatOption(view))
	}
	return nil
}
