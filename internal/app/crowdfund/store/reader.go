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

package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// Reader serves committed campaign state to queries.
type Reader interface {
	Campaign(id crowdfund.CampaignID) (*crowdfund.Campaign, error)
	Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error)
}

// DBReader reads committed state in read-only transactions.
type DBReader struct {
	db *badger.DB
}

func NewDBReader(db *badger.DB) *DBReader {
	return &DBReader{db: db}
}

func (r *DBReader) Campaign(id crowdfund.CampaignID) (*crowdfund.Campaign, error) {
	var c *crowdfund.Campaign
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = NewRepository(txn).Load(id)
		return err
	})
	return c, err
}

func (r *DBReader) Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error) {
	var lines []*crowdfund.ShareLine
	err := r.db.View(func(txn *badger.Txn) error {
		repo := NewRepository(txn)
		if _, err := repo.Status(id); err != nil {
			return err
		}
		var err error
		lines, err = repo.Shares(id)
		return err
	})
	return lines, err
}

// Counts returns the size of every status bucket.
func (r *DBReader) Counts() (map[crowdfund.Status]int, error) {
	res := make(map[crowdfund.Status]int, len(crowdfund.Statuses))
	err := r.db.View(func(txn *badger.Txn) error {
		repo := NewRepository(txn)
		for _, status := range crowdfund.Statuses {
			n, err := repo.Count(status)
			if err != nil {
				return err
			}
			res[status] = n
		}
		return nil
	})
	return res, err
}
