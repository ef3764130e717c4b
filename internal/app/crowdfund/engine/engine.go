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

// Package engine applies campaign calls to the status repository and the
// asset ledger. A Tx holds one call; the caller owns the underlying storage
// transaction and discards it when any operation returns an error.
package engine

import (
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// Facade moves value between accounts. Implementations must be bound to the
// same storage transaction as the Repository.
type Facade interface {
	Lock(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error
	Unlock(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error
	Debit(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error
	Credit(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error
	PickFraction(acc crowdfund.AccountID, asset crowdfund.AssetID) (crowdfund.Balance, bool, error)
}

// Repository is the status repository bound to the call transaction.
type Repository interface {
	Insert(c *crowdfund.Campaign) error
	Status(id crowdfund.CampaignID) (crowdfund.Status, error)
	Find(status crowdfund.Status, id crowdfund.CampaignID) (*crowdfund.Campaign, error)
	Update(c *crowdfund.Campaign) error
	Transit(c *crowdfund.Campaign) (crowdfund.Status, error)
	Remove(c *crowdfund.Campaign) error

	PutShare(id crowdfund.CampaignID, line *crowdfund.ShareLine) error
	Share(id crowdfund.CampaignID, asset crowdfund.AssetID) (*crowdfund.ShareLine, error)
	HasShare(id crowdfund.CampaignID, asset crowdfund.AssetID) (bool, error)
	RemoveShare(id crowdfund.CampaignID, asset crowdfund.AssetID) error
	Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error)

	PutInvestment(inv *crowdfund.Investment) error
	Investment(id crowdfund.CampaignID, investor crowdfund.AccountID) (*crowdfund.Investment, error)
	RemoveInvestment(id crowdfund.CampaignID, investor crowdfund.AccountID) error
	Investments(id crowdfund.CampaignID, limit int) ([]*crowdfund.Investment, error)

	MarkPaid(id crowdfund.CampaignID, investor crowdfund.AccountID, asset crowdfund.AssetID) error

	AddConsumer(investor crowdfund.AccountID, id crowdfund.CampaignID) error
	RemoveConsumer(investor crowdfund.AccountID, id crowdfund.CampaignID) error
}

type Env struct {
	// MaxShares bounds the number of share lines per campaign.
	MaxShares uint32
	// DrainBatch bounds investments settled by one raise or refund call.
	DrainBatch int
}

func DefaultEnv() Env {
	return Env{
		MaxShares:  16,
		DrainBatch: 64,
	}
}

type Tx struct {
	repo   Repository
	assets Facade
	env    Env
	origin crowdfund.AccountID
	now    int64
	events []crowdfund.Event
}

func NewTx(repo Repository, assets Facade, env Env, origin crowdfund.AccountID, now int64) *Tx {
	if env.DrainBatch <= 0 {
		env.DrainBatch = DefaultEnv().DrainBatch
	}
	return &Tx{
		repo:   repo,
		assets: assets,
		env:    env,
		origin: origin,
		now:    now,
	}
}

// Events returns the events emitted so far. They are valid only if the
// storage transaction commits.
func (tx *Tx) Events() []crowdfund.Event {
	return tx.events
}

func (tx *Tx) emit(kind crowdfund.EventKind, c *crowdfund.Campaign, acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) {
	tx.events = append(tx.events, crowdfund.Event{
		Kind:     kind,
		Campaign: c.ID,
		Account:  acc,
		Asset:    asset,
		Amount:   amount,
		Status:   c.Status,
		Raised:   c.Raised,
		Time:     tx.now,
	})
}

// load reads the campaign from its bucket if the status is one of allowed.
func (tx *Tx) load(id crowdfund.CampaignID, allowed ...crowdfund.Status) (*crowdfund.Campaign, error) {
	status, err := tx.repo.Status(id)
	if err != nil {
		return nil, err
	}
	for _, s := range allowed {
		if s == status {
			return tx.repo.Find(status, id)
		}
	}
	return nil, errors.Wrapf(crowdfund.ErrWrongStatus, "campaign %s is %s", id, status)
}

func (tx *Tx) creatorOnly(c *crowdfund.Campaign) error {
	if tx.origin != c.Creator {
		return errors.Wrapf(crowdfund.ErrNotCreator, "campaign %s", c.ID)
	}
	return nil
}

// transit moves the campaign to a new status bucket and records the change.
func (tx *Tx) transit(c *crowdfund.Campaign, to crowdfund.Status) error {
	c.Status = to
	if _, err := tx.repo.Transit(c); err != nil {
		return err
	}
	tx.emit(crowdfund.EventStatusChanged, c, crowdfund.AccountID{}, 0, 0)
	return nil
}

// move transfers free value between two accounts.
func (tx *Tx) move(from, to crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := tx.assets.Debit(from, asset, amount); err != nil {
		return err
	}
	return tx.assets.Credit(to, asset, amount)
}

// release unlocks escrowed value and hands it to the receiver.
func (tx *Tx) release(c *crowdfund.Campaign, to crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := tx.assets.Unlock(c.Account, asset, amount); err != nil {
		return err
	}
	return tx.move(c.Account, to, asset, amount)
}

func (tx *Tx) destroy(c *crowdfund.Campaign) error {
	if err := tx.repo.Remove(c); err != nil {
		return err
	}
	tx.emit(crowdfund.EventDestroyed, c, crowdfund.AccountID{}, 0, 0)
	return nil
}
