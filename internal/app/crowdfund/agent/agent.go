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

// Package agent watches campaign deadlines and proposes the system calls
// that move campaigns forward. It never writes state itself.
package agent

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/dispatch"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
)

// watched are the buckets that can advance without a user call.
var watched = []crowdfund.Status{
	crowdfund.StatusReady,
	crowdfund.StatusActive,
	crowdfund.StatusRefund,
}

type Proposer interface {
	Propose(prop dispatch.Proposal) error
}

type Agent struct {
	cron  *cron.Cron
	db    *badger.DB
	pool  Proposer
	clock dispatch.Clock
	log   *logrus.Logger
}

func New(schedule string, db *badger.DB, pool Proposer, clock dispatch.Clock, log *logrus.Logger) (*Agent, error) {
	a := &Agent{
		cron:  cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log)))),
		db:    db,
		pool:  pool,
		clock: clock,
		log:   log,
	}
	if _, err := a.cron.AddFunc(schedule, a.run); err != nil {
		return nil, errors.Wrapf(err, "failed to schedule agent with %q", schedule)
	}
	return a, nil
}

func (a *Agent) Start() {
	a.log.Info("starting advancement agent")
	a.cron.Start()
}

// Stop waits for a running scan to finish.
func (a *Agent) Stop() context.Context {
	a.log.Info("stopping advancement agent")
	return a.cron.Stop()
}

func (a *Agent) run() {
	proposed, err := a.Scan()
	if err != nil {
		a.log.WithError(err).Error("agent scan failed")
		return
	}
	if proposed > 0 {
		a.log.WithField("proposed", proposed).Debug("agent scan finished")
	}
}

// Scan proposes every due step and returns how many proposals were accepted.
func (a *Agent) Scan() (int, error) {
	now := a.clock.Now().Unix()

	var due []dispatch.Proposal
	err := a.db.View(func(txn *badger.Txn) error {
		repo := store.NewRepository(txn)
		for _, status := range watched {
			err := repo.Scan(status, func(c *crowdfund.Campaign) error {
				if step := engine.Advancement(c, now); step != engine.StepNone {
					due = append(due, dispatch.Proposal{Step: step, Campaign: c.ID})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan campaigns")
	}

	proposed := 0
	for _, prop := range due {
		if err := a.pool.Propose(prop); err != nil {
			a.log.WithField("campaign", prop.Campaign.String()).
				WithField("step", prop.Step.String()).
				WithError(err).
				Debug("proposal rejected")
			continue
		}
		proposed++
	}
	return proposed, nil
}
