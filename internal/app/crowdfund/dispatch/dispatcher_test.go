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
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/ledger"
	"github.com/insolar/crowdfund/observability"
)

const (
	fund  crowdfund.AssetID = 1
	share crowdfund.AssetID = 2
)

var (
	creator = crowdfund.AccountID{0xc}
	alice   = crowdfund.AccountID{0xa}
	bob     = crowdfund.AccountID{0xb}
	cid     = crowdfund.CampaignID{0x1}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

type recordingSink struct {
	events []crowdfund.Event
}

func (s *recordingSink) Publish(events []crowdfund.Event) {
	s.events = append(s.events, events...)
}

type env struct {
	db         *badger.DB
	clock      *testClock
	cache      *store.CacheReader
	dispatcher *Dispatcher
	queries    *Queries
	sink       *recordingSink
}

func newEnv(t *testing.T) *env {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, ledger.Genesis(db, []ledger.Allocation{
		{Account: creator, Asset: share, Amount: 200},
		{Account: alice, Asset: fund, Amount: 60},
		{Account: bob, Asset: fund, Amount: 60},
	}))

	cache, err := store.NewCacheReader(store.NewDBReader(db), 16)
	require.NoError(t, err)
	clock := &testClock{}
	clock.Set(100)
	obs := observability.Make(configuration.Default())
	d := NewDispatcher(db, engine.DefaultEnv(), clock, obs, cache)
	sink := &recordingSink{}
	d.Subscribe(sink)

	return &env{
		db:         db,
		clock:      clock,
		cache:      cache,
		dispatcher: d,
		queries:    NewQueries(db, cache),
		sink:       sink,
	}
}

func (e *env) apply(t *testing.T, call Call) *Receipt {
	r, err := e.dispatcher.Apply(context.Background(), call)
	require.NoError(t, err, "%s", call.Kind)
	return r
}

func (e *env) ready(t *testing.T) {
	e.apply(t, Call{Kind: CallCreate, Origin: creator, Campaign: cid, FundAsset: fund})
	e.apply(t, Call{Kind: CallCommitShares, Origin: creator, Campaign: cid, Asset: share, Amount: 200})
	e.apply(t, Call{Kind: CallReady, Origin: creator, Campaign: cid, Start: 110, End: 200, SoftCap: 50, HardCap: 100})
}

func TestCall_Validate(t *testing.T) {
	assert.True(t, crowdfund.Is(Call{Kind: "nope", Campaign: cid}.Validate(), crowdfund.ErrUnknownCall))
	assert.True(t, crowdfund.Is(Call{Kind: CallCreate, Origin: creator}.Validate(), crowdfund.ErrNoCampaign))
	assert.True(t, crowdfund.Is(Call{Kind: CallInvest, Campaign: cid}.Validate(), crowdfund.ErrNoOrigin))
	assert.NoError(t, Call{Kind: CallPayout, Campaign: cid}.Validate())
	assert.NoError(t, Call{Kind: CallExpire, Campaign: cid}.Validate())
}

func TestDispatcher_Lifecycle(t *testing.T) {
	e := newEnv(t)
	e.ready(t)

	c, err := e.queries.Campaign(cid)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.StatusReady, c.Status)

	_, err = e.dispatcher.Apply(context.Background(), Call{Kind: CallActivate, Campaign: cid})
	assert.True(t, crowdfund.Is(err, crowdfund.ErrNotStarted))

	e.clock.Set(110)
	e.apply(t, Call{Kind: CallActivate, Campaign: cid})

	c, err = e.queries.Campaign(cid)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.StatusActive, c.Status, "cache is invalidated on commit")

	r := e.apply(t, Call{Kind: CallInvest, Origin: alice, Campaign: cid, Amount: 60})
	assert.Equal(t, crowdfund.Balance(60), r.Amount)
	assert.Equal(t, int64(110), r.Time)
	r = e.apply(t, Call{Kind: CallInvest, Origin: bob, Campaign: cid, Amount: 60})
	assert.Equal(t, crowdfund.Balance(40), r.Amount)
	assert.NotEqual(t, r.ID.String(), "")

	invs, err := e.queries.Investments(cid)
	require.NoError(t, err)
	assert.Len(t, invs, 2)

	payouts, err := e.queries.Campaigns(crowdfund.StatusPayout)
	require.NoError(t, err)
	require.Len(t, payouts, 1)

	r = e.apply(t, Call{Kind: CallPayout, Campaign: cid, Investor: alice, Asset: share})
	assert.Equal(t, crowdfund.Balance(120), r.Amount)
	r = e.apply(t, Call{Kind: CallPayout, Campaign: cid, Investor: bob, Asset: share})
	assert.Equal(t, crowdfund.Balance(80), r.Amount)

	consumes, err := e.queries.Consumes(alice)
	require.NoError(t, err)
	assert.Empty(t, consumes)

	for i := 0; i < 2; i++ {
		r = e.apply(t, Call{Kind: CallRaise, Origin: creator, Campaign: cid})
		if r.Done {
			break
		}
	}
	require.True(t, r.Done)

	b, err := e.queries.Balance(creator, fund)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.Balance(100), b.Free)

	_, err = e.queries.Campaign(cid)
	assert.True(t, crowdfund.Is(err, crowdfund.ErrCampaignNotFound))

	last := e.sink.events[len(e.sink.events)-1]
	assert.Equal(t, crowdfund.EventDestroyed, last.Kind)
}

func TestDispatcher_RejectedCallPublishesNothing(t *testing.T) {
	e := newEnv(t)
	e.apply(t, Call{Kind: CallCreate, Origin: creator, Campaign: cid, FundAsset: fund})
	published := len(e.sink.events)

	_, err := e.dispatcher.Apply(context.Background(), Call{Kind: CallCommitShares, Origin: creator, Campaign: cid, Asset: share, Amount: 201})
	assert.Equal(t, crowdfund.KindResource, crowdfund.KindOf(err))
	assert.Equal(t, published, len(e.sink.events))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.dispatcher.Apply(ctx, Call{Kind: CallActivate, Campaign: cid})
	assert.Equal(t, context.Canceled, err)
}

func TestPool(t *testing.T) {
	e := newEnv(t)
	e.ready(t)
	pool := NewPool(e.dispatcher, e.cache, 4)
	prop := Proposal{Step: engine.StepActivate, Campaign: cid}

	err := pool.Propose(prop)
	assert.True(t, crowdfund.Is(err, crowdfund.ErrNotStarted), "stale proposal is rejected")

	e.clock.Set(110)
	require.NoError(t, pool.Propose(prop))
	assert.Equal(t, ErrDuplicateProposal, pool.Propose(prop))
	assert.Equal(t, 1, pool.Pending())

	err = pool.Propose(Proposal{Step: engine.StepActivate, Campaign: crowdfund.CampaignID{9}})
	assert.True(t, crowdfund.Is(err, crowdfund.ErrCampaignNotFound))

	pool.Drain(context.Background())
	assert.Equal(t, 0, pool.Pending())

	c, err := e.queries.Campaign(cid)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.StatusActive, c.Status)

	err = pool.Propose(prop)
	assert.True(t, crowdfund.Is(err, crowdfund.ErrWrongStatus))
}

func TestPool_Run(t *testing.T) {
	e := newEnv(t)
	e.ready(t)
	e.clock.Set(110)
	pool := NewPool(e.dispatcher, e.cache, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	require.NoError(t, pool.Propose(Proposal{Step: engine.StepActivate, Campaign: cid}))
	assert.Eventually(t, func() bool {
		c, err := e.queries.Campaign(cid)
		return err == nil && c.Status == crowdfund.StatusActive
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
