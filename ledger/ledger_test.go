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

package ledger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLedger(t *testing.T) {
	db := openDB(t)
	alice := crowdfund.AccountID{1}
	const asset crowdfund.AssetID = 7

	require.NoError(t, Genesis(db, []Allocation{{Account: alice, Asset: asset, Amount: 100}}))

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		l := New(txn)
		require.NoError(t, l.Lock(alice, asset, 40))

		err := l.Debit(alice, asset, 61)
		assert.True(t, crowdfund.Is(err, crowdfund.ErrInsufficientBalance))

		err = l.Unlock(alice, asset, 41)
		assert.True(t, crowdfund.Is(err, crowdfund.ErrInsufficientLocked))

		require.NoError(t, l.Debit(alice, asset, 60))
		b, err := l.Balance(alice, asset)
		require.NoError(t, err)
		assert.Equal(t, Balances{Free: 0, Locked: 40}, b)
		return nil
	}))

	b, err := NewReader(db).Balance(alice, asset)
	require.NoError(t, err)
	assert.Equal(t, Balances{Free: 0, Locked: 40}, b)
}

func TestLedger_PickFraction(t *testing.T) {
	db := openDB(t)
	escrow := crowdfund.AccountID{2}

	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		l := New(txn)
		_, ok, err := l.PickFraction(escrow, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, l.Mint(escrow, 1, 55))
		require.NoError(t, l.Lock(escrow, 1, 5))
		picked, ok, err := l.PickFraction(escrow, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, crowdfund.Balance(50), picked)

		b, err := l.Balance(escrow, 1)
		require.NoError(t, err)
		assert.Equal(t, Balances{Locked: 5}, b)
		return nil
	}))
}

func TestLedger_CreditOverflow(t *testing.T) {
	db := openDB(t)
	acc := crowdfund.AccountID{3}
	err := db.Update(func(txn *badger.Txn) error {
		l := New(txn)
		require.NoError(t, l.Mint(acc, 1, ^crowdfund.Balance(0)))
		return l.Credit(acc, 1, 1)
	})
	assert.True(t, crowdfund.Is(err, crowdfund.ErrOverflow))
}

func TestGenesis_Once(t *testing.T) {
	db := openDB(t)
	alice := crowdfund.AccountID{1}
	alloc := []Allocation{{Account: alice, Asset: 3, Amount: 10}}

	require.NoError(t, Genesis(db, alloc))
	require.NoError(t, Genesis(db, alloc))

	b, err := NewReader(db).Balance(alice, 3)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.Balance(10), b.Free)
}
