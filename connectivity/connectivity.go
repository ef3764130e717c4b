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

package connectivity

import (
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-pg/pg"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/dbconn"
	"github.com/insolar/crowdfund/internal/pkg/panic"
	"github.com/insolar/crowdfund/observability"
)

func Make(cfg *configuration.Configuration, obs *observability.Observability) *Connectivity {
	log := obs.Log()
	c := &Connectivity{
		log:  log,
		stop: make(chan struct{}),
	}

	state, err := OpenState(cfg.State, log)
	if err != nil {
		log.Fatal(err.Error())
	}
	c.state = state

	if cfg.Projection.Enabled {
		db, err := dbconn.Connect(cfg.DB)
		if err != nil {
			log.Fatal(err.Error())
		}
		c.pg = db
	}

	if !cfg.State.InMemory && cfg.State.GCInterval > 0 {
		c.wg.Add(1)
		go c.collectGarbage(cfg.State.GCInterval, cfg.State.GCDiscardRatio)
	}
	return c
}

type Connectivity struct {
	log   *logrus.Logger
	state *badger.DB
	pg    *pg.DB

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// State returns the badger database holding campaigns and balances.
func (c *Connectivity) State() *badger.DB {
	return c.state
}

// PG returns nil when the projection is disabled.
func (c *Connectivity) PG() *pg.DB {
	return c.pg
}

func (c *Connectivity) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()

	var result error
	if c.pg != nil {
		if err := c.pg.Close(); err != nil {
			result = errors.Wrap(err, "failed to close postgres")
		}
	}
	if err := c.state.Close(); err != nil {
		result = errors.Wrap(err, "failed to close state")
	}
	return result
}

func (c *Connectivity) collectGarbage(interval time.Duration, ratio float64) {
	defer c.wg.Done()
	defer panic.Log("connectivity.GC")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			// badger returns ErrNoRewrite when nothing was collected
			err := c.state.RunValueLogGC(ratio)
			if err == nil {
				c.log.Debug("state value log GC completed")
			} else if err != badger.ErrNoRewrite {
				c.log.WithError(err).Warn("state value log GC failed")
			}
		}
	}
}

// OpenState opens the badger database described by cfg.
func OpenState(cfg configuration.State, log logrus.FieldLogger) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("state dir is required for persistent database")
		}
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, errors.Wrapf(err, "failed to create state dir %s", cfg.Dir)
		}
		opts = badger.DefaultOptions(cfg.Dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{log: log.WithField("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open state")
	}
	return db, nil
}

type badgerLogger struct {
	log logrus.FieldLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
