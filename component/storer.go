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

package component

import (
	"context"
	"sync"
	"time"

	"github.com/go-pg/pg"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/observer/postgres"
	"github.com/insolar/crowdfund/internal/pkg/cycle"
	"github.com/insolar/crowdfund/internal/pkg/panic"
	"github.com/insolar/crowdfund/observability"
)

type PGer interface {
	PG() *pg.DB
}

// Projector buffers events of committed calls and copies them into Postgres
// in commit order. A batch is removed from the buffer only after it is stored.
// Events of a call that does not fit into a full buffer are dropped whole.
type Projector struct {
	log      *logrus.Logger
	metrics  *observability.CommonMetrics
	interval time.Duration
	batch    int
	limit    int
	store    func([]crowdfund.Event) error

	mu     sync.Mutex
	buffer []crowdfund.Event
}

func NewProjector(cfg *configuration.Configuration, obs *observability.Observability, conn PGer) *Projector {
	return newProjector(cfg, obs, makeStorer(cfg, obs, conn))
}

func newProjector(cfg *configuration.Configuration, obs *observability.Observability, store func([]crowdfund.Event) error) *Projector {
	batch := cfg.Projection.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &Projector{
		log:      obs.Log(),
		metrics:  observability.MakeCommonMetrics(obs),
		interval: cfg.Projection.Interval,
		batch:    batch,
		limit:    cfg.Projection.BufferSize,
		store:    store,
	}
}

func (p *Projector) Publish(events []crowdfund.Event) {
	if len(events) == 0 {
		return
	}
	p.mu.Lock()
	if p.limit > 0 && len(p.buffer)+len(events) > p.limit {
		pending := len(p.buffer)
		p.mu.Unlock()
		p.metrics.EventsDropped.Add(float64(len(events)))
		p.log.Warnf("projection buffer is full (%d pending), %d events dropped", pending, len(events))
		return
	}
	p.buffer = append(p.buffer, events...)
	p.mu.Unlock()
}

func (p *Projector) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Flush stores buffered events batch by batch until the buffer is empty or a
// batch fails.
func (p *Projector) Flush() error {
	for {
		p.mu.Lock()
		n := len(p.buffer)
		if n > p.batch {
			n = p.batch
		}
		batch := make([]crowdfund.Event, n)
		copy(batch, p.buffer)
		p.mu.Unlock()

		if n == 0 {
			return nil
		}
		if err := p.store(batch); err != nil {
			p.metrics.ProjectionErrors.Inc()
			return err
		}

		p.mu.Lock()
		p.buffer = p.buffer[n:]
		p.mu.Unlock()
		p.metrics.EventsProjected.Add(float64(n))
	}
}

// Run flushes the buffer every interval until ctx is done, then makes a last attempt.
func (p *Projector) Run(ctx context.Context) {
	defer panic.Log("component.Projector")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := p.Flush(); err != nil {
				p.log.WithError(err).Errorf("%d events were not projected", p.Pending())
			}
			return
		case <-ticker.C:
			if err := p.Flush(); err != nil {
				p.log.WithError(err).Error("failed to project events")
			}
		}
	}
}

func makeStorer(
	cfg *configuration.Configuration,
	obs *observability.Observability,
	conn PGer,
) func([]crowdfund.Event) error {
	log := obs.Log()
	db := conn.PG()

	return func(events []crowdfund.Event) error {
		return cycle.UntilError(func() error {
			err := db.RunInTransaction(func(tx *pg.Tx) error {
				history := postgres.NewEventStorage(obs, tx)
				campaigns := postgres.NewCampaignStorage(obs, tx)
				for i := range events {
					if err := history.Insert(&events[i]); err != nil {
						return err
					}
					if err := campaigns.Apply(&events[i]); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Error(err)
			}
			return err
		}, cfg.DB.AttemptInterval, cfg.DB.Attempts)
	}
}
