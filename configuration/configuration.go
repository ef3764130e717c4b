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

package configuration

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/pkg/cycle"
)

type Configuration struct {
	Log        Log
	DB         DB
	State      State
	Crowdfund  Crowdfund
	Agent      Agent
	API        API
	Projection Projection
	Cache      Cache
	Genesis    []Allocation
}

type Log struct {
	Level string
	// text or json
	Format string
}

type DB struct {
	URL      string
	PoolSize int
	Attempts cycle.Limit
	// Interval between store in db failed attempts
	AttemptInterval time.Duration
}

// State is the badger database holding campaigns and balances.
type State struct {
	Dir            string
	InMemory       bool
	GCInterval     time.Duration
	GCDiscardRatio float64
}

type Crowdfund struct {
	MaxShares  uint32
	DrainBatch int
}

type Agent struct {
	Enabled  bool
	Schedule string
	// Pending system proposals.
	PoolSize int
}

type API struct {
	Addr string
}

// Projection copies committed events into Postgres.
type Projection struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	// BufferSize caps events waiting for Postgres. Zero means no cap.
	BufferSize int
}

type Cache struct {
	Size int
}

type Allocation struct {
	Account string
	Asset   uint32
	Amount  uint64
}

func Default() *Configuration {
	return &Configuration{
		Log: Log{
			Level:  logrus.DebugLevel.String(),
			Format: "text",
		},
		DB: DB{
			URL:             "postgres://postgres@localhost/postgres?sslmode=disable",
			PoolSize:        20,
			Attempts:        5,
			AttemptInterval: 3 * time.Second,
		},
		State: State{
			Dir:            ".artifacts/state",
			GCInterval:     5 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Crowdfund: Crowdfund{
			MaxShares:  16,
			DrainBatch: 64,
		},
		Agent: Agent{
			Enabled:  true,
			Schedule: "@every 6s",
			PoolSize: 1024,
		},
		API: API{
			Addr: ":8080",
		},
		Projection: Projection{
			Enabled:    false,
			Interval:   time.Second,
			BatchSize:  1000,
			BufferSize: 100000,
		},
		Cache: Cache{
			Size: 10000,
		},
	}
}
