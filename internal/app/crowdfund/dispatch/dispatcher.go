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

package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/ledger"
	"github.com/insolar/crowdfund/observability"
)

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (*DefaultClock) Now() time.Time {
	return time.Now()
}

// Sink receives the events of every committed call in commit order.
type Sink interface {
	Publish(events []crowdfund.Event)
}

type invalidator interface {
	Invalidate(id crowdfund.CampaignID)
}

// Dispatcher applies calls one at a time. Every call runs in its own badger
// transaction, which is committed only if the engine accepted the call.
type Dispatcher struct {
	mu    sync.Mutex
	db    *badger.DB
	env   engine.Env
	clock Clock
	log   *logrus.Logger

	applied  *observability.CallMetrics
	rejected *observability.CallMetrics
	common   *observability.CommonMetrics

	cache invalidator
	sinks []Sink
}

func NewDispatcher(db *badger.DB, env engine.Env, clock Clock, obs *observability.Observability, cache invalidator) *Dispatcher {
	return &Dispatcher{
		db:       db,
		env:      env,
		clock:    clock,
		log:      obs.Log(),
		applied:  observability.MakeCallMetrics(obs, "applied"),
		rejected: observability.MakeCallMetrics(obs, "rejected"),
		common:   observability.MakeCommonMetrics(obs),
		cache:    cache,
	}
}

// Subscribe must be called before the first Apply.
func (d *Dispatcher) Subscribe(s Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Apply(ctx context.Context, call Call) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := call.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	started := time.Now()
	now := d.clock.Now().Unix()
	log := d.log.WithField("call", call.Kind).WithField("campaign", call.Campaign.String())

	var (
		res    result
		events []crowdfund.Event
	)
	err := d.db.Update(func(txn *badger.Txn) error {
		tx := engine.NewTx(store.NewRepository(txn), ledger.New(txn), d.env, call.Origin, now)
		r, err := execute(tx, call)
		if err != nil {
			return err
		}
		res = r
		events = tx.Events()
		return nil
	})
	if err != nil {
		d.inc(d.rejected, call.Kind)
		switch crowdfund.KindOf(err) {
		case crowdfund.KindInvariant, crowdfund.KindUnknown:
			log.WithError(err).Error("call failed")
		default:
			log.WithError(err).Debug("call rejected")
		}
		return nil, err
	}

	touched := make(map[crowdfund.CampaignID]struct{})
	touched[call.Campaign] = struct{}{}
	for _, e := range events {
		touched[e.Campaign] = struct{}{}
	}
	if d.cache != nil {
		for id := range touched {
			d.cache.Invalidate(id)
		}
	}
	if len(events) > 0 {
		for _, s := range d.sinks {
			s.Publish(events)
		}
	}

	d.inc(d.applied, call.Kind)
	d.common.CallTime.Set(time.Since(started).Seconds())
	log.WithField("events", len(events)).Debug("call applied")

	return &Receipt{
		ID:       uuid.New(),
		Kind:     call.Kind,
		Campaign: call.Campaign,
		Time:     now,
		Amount:   res.amount,
		Done:     res.done,
		Events:   events,
	}, nil
}

func (d *Dispatcher) inc(m *observability.CallMetrics, kind CallKind) {
	if c := m.ByName(string(kind)); c != nil {
		c.Inc()
	}
}
