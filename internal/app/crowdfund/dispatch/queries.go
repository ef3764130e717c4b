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
	"github.com/dgraph-io/badger/v4"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/ledger"
)

// Queries reads committed state. It never blocks calls.
type Queries struct {
	db        *badger.DB
	campaigns store.Reader
	balances  *ledger.Reader
}

func NewQueries(db *badger.DB, campaigns store.Reader) *Queries {
	return &Queries{
		db:        db,
		campaigns: campaigns,
		balances:  ledger.NewReader(db),
	}
}

func (q *Queries) Campaign(id crowdfund.CampaignID) (*crowdfund.Campaign, error) {
	return q.campaigns.Campaign(id)
}

func (q *Queries) Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error) {
	return q.campaigns.Shares(id)
}

func (q *Queries) Campaigns(status crowdfund.Status) ([]*crowdfund.Campaign, error) {
	var res []*crowdfund.Campaign
	err := q.db.View(func(txn *badger.Txn) error {
		return store.NewRepository(txn).Scan(status, func(c *crowdfund.Campaign) error {
			res = append(res, c)
			return nil
		})
	})
	return res, err
}

func (q *Queries) Investments(id crowdfund.CampaignID) ([]*crowdfund.Investment, error) {
	var res []*crowdfund.Investment
	err := q.db.View(func(txn *badger.Txn) error {
		repo := store.NewRepository(txn)
		if _, err := repo.Status(id); err != nil {
			return err
		}
		var err error
		res, err = repo.Investments(id, 0)
		return err
	})
	return res, err
}

func (q *Queries) Consumes(investor crowdfund.AccountID) ([]crowdfund.CampaignID, error) {
	var res []crowdfund.CampaignID
	err := q.db.View(func(txn *badger.Txn) error {
		var err error
		res, err = store.NewRepository(txn).Consumes(investor)
		return err
	})
	return res, err
}

func (q *Queries) Balance(acc crowdfund.AccountID, asset crowdfund.AssetID) (ledger.Balances, error) {
	return q.balances.Balance(acc, asset)
}
