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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

type Counter interface {
	Counts() (map[crowdfund.Status]int, error)
}

// StatusCollector reports the size of every status bucket on scrape.
type StatusCollector struct {
	desc    *prometheus.Desc
	counter Counter
	log     logrus.FieldLogger
}

type StatusOpts prometheus.Opts

func NewStatusCollector(opts StatusOpts, counter Counter, log logrus.FieldLogger) *StatusCollector {
	return &StatusCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name),
			opts.Help,
			[]string{"status"},
			opts.ConstLabels,
		),
		counter: counter,
		log:     log,
	}
}

func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.counter.Counts()
	if err != nil {
		c.log.WithError(err).Error("failed to count campaigns")
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	for _, status := range crowdfund.Statuses {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[status]), status.String())
	}
}
