//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package observability

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/configuration"
)

func Make(cfg *configuration.Configuration) *Observability {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Observability{
		log:      log,
		metrics:  prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
	}
}

type Observability struct {
	log     *logrus.Logger
	metrics *prometheus.Registry

	mu       sync.Mutex
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

func (o *Observability) Log() *logrus.Logger {
	return o.log
}

func (o *Observability) Metrics() *prometheus.Registry {
	return o.metrics
}

func (o *Observability) Counter(opts prometheus.CounterOpts) prometheus.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.counters[opts.Name]
	if ok {
		return c
	}
	c = prometheus.NewCounter(opts)
	err := o.metrics.Register(c)
	if err != nil {
		o.log.WithField("metric_collector", opts.Name).
			Errorf("failed to register metric")
		return c
	}
	o.counters[opts.Name] = c
	return c
}

func (o *Observability) Gauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.gauges[opts.Name]
	if ok {
		return g
	}
	g = prometheus.NewGauge(opts)
	err := o.metrics.Register(g)
	if err != nil {
		o.log.WithField("metric_collector", opts.Name).
			Errorf("failed to register metric")
		return g
	}
	o.gauges[opts.Name] = g
	return g
}

// MakeCallMetrics builds one counter per call, named crowdfund_<call>_<action>_total.
func MakeCallMetrics(obs *Observability, action string) *CallMetrics {
	counters := &CallMetrics{}
	v := reflect.ValueOf(counters).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := strings.ToLower(t.Field(i).Name)
		name := fmt.Sprintf("crowdfund_%s_%s_total", field, action)
		help := fmt.Sprintf("Number of %s calls %s.", field, action)
		opts := prometheus.CounterOpts{
			Name: name,
			Help: help,
		}
		collector := obs.Counter(opts)
		v.Field(i).Set(reflect.ValueOf(collector))
	}
	return counters
}

type CallMetrics struct {
	Create             prometheus.Counter
	CommitShares       prometheus.Counter
	RollbackShares     prometheus.Counter
	Ready              prometheus.Counter
	Activate           prometheus.Counter
	Invest             prometheus.Counter
	IncreaseInvestment prometheus.Counter
	Finish             prometheus.Counter
	Payout             prometheus.Counter
	Raise              prometheus.Counter
	Expire             prometheus.Counter
	Refund             prometheus.Counter
	ReleaseShares      prometheus.Counter
}

// ByName returns the counter of a call given in snake case, or nil.
func (m *CallMetrics) ByName(call string) prometheus.Counter {
	want := strings.Replace(call, "_", "", -1)
	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if strings.ToLower(t.Field(i).Name) == want {
			c, _ := v.Field(i).Interface().(prometheus.Counter)
			return c
		}
	}
	return nil
}

type CommonMetrics struct {
	CallTime          prometheus.Gauge
	ProposalsPending  prometheus.Gauge
	ProposalsAccepted prometheus.Counter
	ProposalsRejected prometheus.Counter
	EventsProjected   prometheus.Counter
	EventsDropped     prometheus.Counter
	ProjectionErrors  prometheus.Counter
}

func MakeCommonMetrics(obs *Observability) *CommonMetrics {
	return &CommonMetrics{
		CallTime: obs.Gauge(prometheus.GaugeOpts{
			Name: "crowdfund_call_processing_time",
			Help: "Seconds spent on applying the last call",
		}),
		ProposalsPending: obs.Gauge(prometheus.GaugeOpts{
			Name: "crowdfund_proposals_pending",
			Help: "System proposals waiting to be applied",
		}),
		ProposalsAccepted: obs.Counter(prometheus.CounterOpts{
			Name: "crowdfund_proposals_accepted_total",
			Help: "System proposals queued after validation",
		}),
		ProposalsRejected: obs.Counter(prometheus.CounterOpts{
			Name: "crowdfund_proposals_rejected_total",
			Help: "Stale or duplicate system proposals",
		}),
		EventsProjected: obs.Counter(prometheus.CounterOpts{
			Name: "crowdfund_events_projected_total",
			Help: "Events stored in the projection database",
		}),
		EventsDropped: obs.Counter(prometheus.CounterOpts{
			Name: "crowdfund_events_dropped_total",
			Help: "Events not projected because the projection buffer was full",
		}),
		ProjectionErrors: obs.Counter(prometheus.CounterOpts{
			Name: "crowdfund_projection_errors_total",
			Help: "Failed attempts to store events in the projection database",
		}),
	}
}
