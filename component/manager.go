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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/connectivity"
	"github.com/insolar/crowdfund/internal/app/api"
	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/agent"
	"github.com/insolar/crowdfund/internal/app/crowdfund/dispatch"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/internal/metrics"
	"github.com/insolar/crowdfund/ledger"
	"github.com/insolar/crowdfund/observability"
)

// Manager owns every long running part of a node.
type Manager struct {
	cfg *configuration.Configuration
	log *logrus.Logger

	conn       *connectivity.Connectivity
	dispatcher *dispatch.Dispatcher
	pool       *dispatch.Pool
	agent      *agent.Agent
	projector  *Projector
	router     *Router
	stop       func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func Prepare() *Manager {
	cfg := configuration.Load()
	obs := observability.Make(cfg)
	conn := connectivity.Make(cfg, obs)
	m, err := prepare(cfg, obs, conn, &dispatch.DefaultClock{})
	if err != nil {
		obs.Log().Fatal(err.Error())
	}
	return m
}

func prepare(
	cfg *configuration.Configuration,
	obs *observability.Observability,
	conn *connectivity.Connectivity,
	clock dispatch.Clock,
) (*Manager, error) {
	db := conn.State()

	genesis, err := allocations(cfg.Genesis)
	if err != nil {
		return nil, err
	}
	if err := ledger.Genesis(db, genesis); err != nil {
		return nil, errors.Wrap(err, "failed to apply genesis")
	}

	cache, err := store.NewCacheReader(store.NewDBReader(db), cfg.Cache.Size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init campaign cache")
	}

	err = obs.Metrics().Register(metrics.NewStatusCollector(metrics.StatusOpts{
		Namespace: "crowdfund",
		Name:      "campaigns",
		Help:      "Campaigns in every status bucket",
	}, store.NewDBReader(db), obs.Log()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to register status collector")
	}

	env := engine.Env{MaxShares: cfg.Crowdfund.MaxShares, DrainBatch: cfg.Crowdfund.DrainBatch}
	d := dispatch.NewDispatcher(db, env, clock, obs, cache)
	pool := dispatch.NewPool(d, cache, cfg.Agent.PoolSize)

	m := &Manager{
		cfg:        cfg,
		log:        obs.Log(),
		conn:       conn,
		dispatcher: d,
		pool:       pool,
	}

	if cfg.Agent.Enabled {
		m.agent, err = agent.New(cfg.Agent.Schedule, db, pool, clock, obs.Log())
		if err != nil {
			return nil, err
		}
	}

	if cfg.Projection.Enabled {
		m.projector = NewProjector(cfg, obs, conn)
		d.Subscribe(m.projector)
	}

	server := api.NewCrowdfundServer(d, dispatch.NewQueries(db, cache), obs.Log())
	m.router = NewRouter(cfg, obs, server)
	m.stop = makeStopper(obs, conn)
	return m, nil
}

func allocations(cfg []configuration.Allocation) ([]ledger.Allocation, error) {
	res := make([]ledger.Allocation, 0, len(cfg))
	for _, a := range cfg {
		acc, err := crowdfund.NewAccountIDFromString(a.Account)
		if err != nil {
			return nil, errors.Wrap(err, "bad genesis allocation")
		}
		res = append(res, ledger.Allocation{
			Account: acc,
			Asset:   crowdfund.AssetID(a.Asset),
			Amount:  crowdfund.Balance(a.Amount),
		})
	}
	return res, nil
}

func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.run(ctx, m.pool.Run)
	if m.projector != nil {
		m.run(ctx, m.projector.Run)
	}
	if m.agent != nil {
		m.agent.Start()
	}
	m.router.Start()
	m.log.Infof("crowdfund node is listening on %s", m.cfg.API.Addr)
}

func (m *Manager) run(ctx context.Context, f func(context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		f(ctx)
	}()
}

// Stop stops accepting calls, waits for background work and closes the databases.
func (m *Manager) Stop() {
	m.router.Stop()
	if m.agent != nil {
		<-m.agent.Stop().Done()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.stop()
}
