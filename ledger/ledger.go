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

// Package ledger keeps fungible balances next to the campaign state, so an
// asset movement commits or discards together with the call that caused it.
package ledger

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
)

const prefixAccount byte = 'a'

// Balances of one asset held by one account. Locked value cannot be
// debited until it is unlocked.
type Balances struct {
	Free   crowdfund.Balance `codec:"free" json:"free"`
	Locked crowdfund.Balance `codec:"locked" json:"locked"`
}

func accountKey(acc crowdfund.AccountID, asset crowdfund.AssetID) []byte {
	k := make([]byte, 0, 1+crowdfund.AccountIDSize+4)
	k = append(k, prefixAccount)
	k = append(k, acc.Bytes()...)
	var a [4]byte
	binary.BigEndian.PutUint32(a[:], uint32(asset))
	return append(k, a[:]...)
}

// Ledger is bound to a single badger transaction.
type Ledger struct {
	txn *badger.Txn
}

func New(txn *badger.Txn) *Ledger {
	return &Ledger{txn: txn}
}

func (l *Ledger) Balance(acc crowdfund.AccountID, asset crowdfund.AssetID) (Balances, error) {
	var b Balances
	item, err := l.txn.Get(accountKey(acc, asset))
	if err == badger.ErrKeyNotFound {
		return b, nil
	}
	if err != nil {
		return b, errors.Wrap(err, "failed to read balance")
	}
	err = item.Value(func(val []byte) error {
		return store.Decode(val, &b)
	})
	return b, err
}

func (l *Ledger) set(acc crowdfund.AccountID, asset crowdfund.AssetID, b Balances) error {
	k := accountKey(acc, asset)
	if b.Free == 0 && b.Locked == 0 {
		return errors.Wrap(l.txn.Delete(k), "failed to reap balance")
	}
	val, err := store.Encode(b)
	if err != nil {
		return err
	}
	return errors.Wrap(l.txn.Set(k, val), "failed to write balance")
}

// Mint creates new value. Only genesis and tests use it.
func (l *Ledger) Mint(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	return l.Credit(acc, asset, amount)
}

func (l *Ledger) Credit(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	b, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	if b.Free, err = crowdfund.CheckedAdd(b.Free, amount); err != nil {
		return errors.Wrapf(err, "credit %s asset %d", acc, asset)
	}
	return l.set(acc, asset, b)
}

func (l *Ledger) Debit(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	b, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	if b.Free < amount {
		return errors.Wrapf(crowdfund.ErrInsufficientBalance, "debit %d of asset %d from %s holding %d", amount, asset, acc, b.Free)
	}
	b.Free -= amount
	return l.set(acc, asset, b)
}

func (l *Ledger) Lock(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	b, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	if b.Free < amount {
		return errors.Wrapf(crowdfund.ErrInsufficientBalance, "lock %d of asset %d on %s holding %d", amount, asset, acc, b.Free)
	}
	b.Free -= amount
	if b.Locked, err = crowdfund.CheckedAdd(b.Locked, amount); err != nil {
		return err
	}
	return l.set(acc, asset, b)
}

func (l *Ledger) Unlock(acc crowdfund.AccountID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	b, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	if b.Locked < amount {
		return errors.Wrapf(crowdfund.ErrInsufficientLocked, "unlock %d of asset %d on %s locking %d", amount, asset, acc, b.Locked)
	}
	b.Locked -= amount
	if b.Free, err = crowdfund.CheckedAdd(b.Free, amount); err != nil {
		return err
	}
	return l.set(acc, asset, b)
}

// PickFraction takes the whole free balance of the asset off the account.
// It reports false when there was nothing to take.
func (l *Ledger) PickFraction(acc crowdfund.AccountID, asset crowdfund.AssetID) (crowdfund.Balance, bool, error) {
	b, err := l.Balance(acc, asset)
	if err != nil {
		return 0, false, err
	}
	if b.Free == 0 {
		return 0, false, nil
	}
	picked := b.Free
	b.Free = 0
	if err := l.set(acc, asset, b); err != nil {
		return 0, false, err
	}
	return picked, true, nil
}

var genesisKey = []byte{'g'}

// Genesis mints the initial balances in one transaction. It does nothing if
// the state already went through genesis.
func Genesis(db *badger.DB, balances []Allocation) error {
	return db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(genesisKey)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return errors.Wrap(err, "failed to check genesis marker")
		}
		if err := txn.Set(genesisKey, []byte{1}); err != nil {
			return errors.Wrap(err, "failed to set genesis marker")
		}

		l := New(txn)
		for _, a := range balances {
			if err := l.Mint(a.Account, a.Asset, a.Amount); err != nil {
				return errors.Wrapf(err, "failed to mint genesis balance for %s", a.Account)
			}
		}
		return nil
	})
}

type Allocation struct {
	Account crowdfund.AccountID
	Asset   crowdfund.AssetID
	Amount  crowdfund.Balance
}

// Reader serves committed balances.
type Reader struct {
	db *badger.DB
}

func NewReader(db *badger.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) Balance(acc crowdfund.AccountID, asset crowdfund.AssetID) (Balances, error) {
	var b Balances
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		b, err = New(txn).Balance(acc, asset)
		return err
	})
	return b, err
}
