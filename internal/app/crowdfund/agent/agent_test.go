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

package agent

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/dispatch"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/ledger"
	"github.com/insolar/crowdfund/observability"
)

type testClock struct {
	now int64
}

func (c *testClock) Now() time.Time {
	return time.Unix(c.now, 0)
}

type proposerMock struct {
	proposals []dispatch.Proposal
}

func (m *proposerMock) Propose(prop dispatch.Proposal) error {
	m.proposals = append(m.proposals, prop)
	return nil
}

var (
	creator  = crowdfund.AccountID{0xc}
	investor = crowdfund.AccountID{0xa}
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log
}

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *badger.DB, c *crowdfund.Campaign) {
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return store.NewRepository(txn).Insert(c)
	}))
}

func TestAgent_Scan(t *testing.T) {
	db := openDB(t)
	ready := &crowdfund.Campaign{ID: crowdfund.CampaignID{1}, Status: crowdfund.StatusReady, StartTime: 10, EndTime: 20, SoftCap: 5, HardCap: 10}
	funded := &crowdfund.Campaign{ID: crowdfund.CampaignID{2}, Status: crowdfund.StatusActive, StartTime: 10, EndTime: 20, SoftCap: 5, HardCap: 10, Raised: 5}
	failed := &crowdfund.Campaign{ID: crowdfund.CampaignID{3}, Status: crowdfund.StatusActive, StartTime: 10, EndTime: 20, SoftCap: 5, HardCap: 10}
	refunding := &crowdfund.Campaign{ID: crowdfund.CampaignID{4}, Status: crowdfund.StatusRefund}
	incomplete := &crowdfund.Campaign{ID: crowdfund.CampaignID{5}, Status: crowdfund.StatusIncomplete}
	for _, c := range []*crowdfund.Campaign{ready, funded, failed, refunding, incomplete} {
		insert(t, db, c)
	}

	clock := &testClock{now: 15}
	pool := &proposerMock{}
	a, err := New("@every 1h", db, pool, clock, quietLog())
	require.NoError(t, err)

	n, err := a.Scan()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []dispatch.Proposal{
		{Step: engine.StepActivate, Campaign: ready.ID},
		{Step: engine.StepRefund, Campaign: refunding.ID},
	}, pool.proposals)

	clock.now = 20
	pool.proposals = nil
	_, err = a.Scan()
	require.NoError(t, err)
	assert.ElementsMatch(t, []dispatch.Proposal{
		{Step: engine.StepActivate, Campaign: ready.ID},
		{Step: engine.StepFinish, Campaign: funded.ID},
		{Step: engine.StepExpire, Campaign: failed.ID},
		{Step: engine.StepRefund, Campaign: refunding.ID},
	}, pool.proposals)
}

func TestAgent_BadSchedule(t *testing.T) {
	_, err := New("every now and then", openDB(t), &proposerMock{}, &testClock{}, quietLog())
	assert.Error(t, err)
}

// The agent drives a failed campaign to ReleaseShares through the real pool.
func TestAgent_DrivesExpiry(t *testing.T) {
	db := openDB(t)
	require.NoError(t, ledger.Genesis(db, []ledger.Allocation{
		{Account: creator, Asset: 2, Amount: 10},
		{Account: investor, Asset: 1, Amount: 10},
	}))

	clock := &testClock{now: 100}
	obs := observability.Make(configuration.Default())
	obs.Log().SetOutput(ioutil.Discard)
	cache, err := store.NewCacheReader(store.NewDBReader(db), 16)
	require.NoError(t, err)
	d := dispatch.NewDispatcher(db, engine.Env{MaxShares: 4, DrainBatch: 1}, clock, obs, cache)
	pool := dispatch.NewPool(d, cache, 8)
	ctx := context.Background()
	id := crowdfund.CampaignID{7}

	for _, call := range []dispatch.Call{
		{Kind: dispatch.CallCreate, Origin: creator, Campaign: id, FundAsset: 1},
		{Kind: dispatch.CallCommitShares, Origin: creator, Campaign: id, Asset: 2, Amount: 10},
		{Kind: dispatch.CallReady, Origin: creator, Campaign: id, Start: 100, End: 200, SoftCap: 50, HardCap: 100},
	} {
		_, err := d.Apply(ctx, call)
		require.NoError(t, err)
	}

	a, err := New("@every 1h", db, pool, clock, quietLog())
	require.NoError(t, err)

	_, err = a.Scan()
	require.NoError(t, err)
	pool.Drain(ctx)

	_, err = d.Apply(ctx, dispatch.Call{Kind: dispatch.CallInvest, Origin: investor, Campaign: id, Amount: 10})
	require.NoError(t, err)

	clock.now = 200
	_, err = a.Scan()
	require.NoError(t, err)
	pool.Drain(ctx)

	c, err := cache.Campaign(id)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.StatusReleaseShares, c.Status)

	b, err := ledger.NewReader(db).Balance(investor, 1)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.Balance(10), b.Free)
}
