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
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// Repository keeps campaigns in per-status buckets next to a status index.
// A campaign is present in exactly one bucket and the index points at it.
// All methods work inside the caller's transaction, so a failed call
// leaves no partial writes behind once the transaction is discarded.
type Repository struct {
	txn *badger.Txn
}

func NewRepository(txn *badger.Txn) *Repository {
	return &Repository{txn: txn}
}

func (r *Repository) get(key []byte, v interface{}) error {
	item, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to read key")
	}
	return item.Value(func(val []byte) error {
		return Decode(val, v)
	})
}

func (r *Repository) has(key []byte) (bool, error) {
	_, err := r.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to read key")
	}
	return true, nil
}

func (r *Repository) put(key []byte, v interface{}) error {
	val, err := Encode(v)
	if err != nil {
		return err
	}
	return errors.Wrap(r.txn.Set(key, val), "failed to write key")
}

func (r *Repository) del(key []byte) error {
	return errors.Wrap(r.txn.Delete(key), "failed to delete key")
}

type entry struct {
	key []byte
	val []byte
}

// collect copies up to limit entries under prefix. Copies are taken so callers
// may write to the transaction afterwards, badger allows one iterator per
// read-write transaction. A limit of zero means no limit.
func (r *Repository) collect(prefix []byte, keysOnly bool, limit int) ([]entry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = !keysOnly
	it := r.txn.NewIterator(opts)
	defer it.Close()

	var res []entry
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(res) == limit {
			break
		}
		item := it.Item()
		e := entry{key: item.KeyCopy(nil)}
		if !keysOnly {
			val, err := item.ValueCopy(nil)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read value")
			}
			e.val = val
		}
		res = append(res, e)
	}
	return res, nil
}

// Insert adds a new campaign to the bucket of its status.
func (r *Repository) Insert(c *crowdfund.Campaign) error {
	ok, err := r.has(statusKey(c.ID))
	if err != nil {
		return err
	}
	if ok {
		return errors.Wrapf(crowdfund.ErrCampaignExists, "campaign %s", c.ID)
	}
	retired, err := r.has(retiredKey(c.ID))
	if err != nil {
		return err
	}
	if retired {
		return errors.Wrapf(crowdfund.ErrCampaignRetired, "campaign %s", c.ID)
	}
	if err := r.put(statusKey(c.ID), c.Status); err != nil {
		return err
	}
	return r.put(campaignKey(c.Status, c.ID), c)
}

// Status returns the indexed status of the campaign.
func (r *Repository) Status(id crowdfund.CampaignID) (crowdfund.Status, error) {
	var status crowdfund.Status
	err := r.get(statusKey(id), &status)
	if err == ErrNotFound {
		return 0, errors.Wrapf(crowdfund.ErrCampaignNotFound, "campaign %s", id)
	}
	return status, err
}

// Find reads the campaign from the given bucket only.
func (r *Repository) Find(status crowdfund.Status, id crowdfund.CampaignID) (*crowdfund.Campaign, error) {
	c := &crowdfund.Campaign{}
	err := r.get(campaignKey(status, id), c)
	if err == ErrNotFound {
		return nil, errors.Wrapf(crowdfund.ErrCampaignNotFound, "campaign %s in bucket %s", id, status)
	}
	if err != nil {
		return nil, err
	}
	if c.Status != status {
		return nil, errors.Wrapf(crowdfund.ErrIndexMismatch, "campaign %s stored as %s in bucket %s", id, c.Status, status)
	}
	return c, nil
}

// Load resolves the status through the index and reads the campaign from its bucket.
func (r *Repository) Load(id crowdfund.CampaignID) (*crowdfund.Campaign, error) {
	status, err := r.Status(id)
	if err != nil {
		return nil, err
	}
	c, err := r.Find(status, id)
	if crowdfund.Is(err, crowdfund.ErrCampaignNotFound) {
		return nil, errors.Wrapf(crowdfund.ErrIndexMismatch, "campaign %s indexed as %s", id, status)
	}
	return c, err
}

// Update rewrites the campaign in place. The status must not change.
func (r *Repository) Update(c *crowdfund.Campaign) error {
	status, err := r.Status(c.ID)
	if err != nil {
		return err
	}
	if status != c.Status {
		return errors.Wrapf(crowdfund.ErrIndexMismatch, "campaign %s update from %s to %s", c.ID, status, c.Status)
	}
	return r.put(campaignKey(c.Status, c.ID), c)
}

// Transit moves the campaign to the bucket of c.Status and fixes the index.
func (r *Repository) Transit(c *crowdfund.Campaign) (crowdfund.Status, error) {
	prev, err := r.Status(c.ID)
	if err != nil {
		return 0, err
	}
	if prev == c.Status {
		return prev, r.put(campaignKey(c.Status, c.ID), c)
	}
	if err := r.del(campaignKey(prev, c.ID)); err != nil {
		return 0, err
	}
	if err := r.put(statusKey(c.ID), c.Status); err != nil {
		return 0, err
	}
	return prev, r.put(campaignKey(c.Status, c.ID), c)
}

// Remove destroys the campaign together with its share lines and investments.
// Payout markers outlive the campaign and the id stays retired.
func (r *Repository) Remove(c *crowdfund.Campaign) error {
	status, err := r.Status(c.ID)
	if err != nil {
		return err
	}
	if err := r.del(campaignKey(status, c.ID)); err != nil {
		return err
	}
	if err := r.del(statusKey(c.ID)); err != nil {
		return err
	}
	if err := errors.Wrap(r.txn.Set(retiredKey(c.ID), []byte{1}), "failed to write key"); err != nil {
		return err
	}
	for _, prefix := range [][]byte{sharesPrefix(c.ID), investmentsPrefix(c.ID)} {
		entries, err := r.collect(prefix, true, 0)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.del(e.key); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scan visits campaigns of a bucket in key order.
func (r *Repository) Scan(status crowdfund.Status, fn func(*crowdfund.Campaign) error) error {
	entries, err := r.collect(bucketPrefix(status), false, 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		c := &crowdfund.Campaign{}
		if err := Decode(e.val, c); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the size of a bucket.
func (r *Repository) Count(status crowdfund.Status) (int, error) {
	entries, err := r.collect(bucketPrefix(status), true, 0)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Share lines.

func (r *Repository) PutShare(id crowdfund.CampaignID, line *crowdfund.ShareLine) error {
	return r.put(shareKey(id, line.Asset), line)
}

func (r *Repository) Share(id crowdfund.CampaignID, asset crowdfund.AssetID) (*crowdfund.ShareLine, error) {
	line := &crowdfund.ShareLine{}
	err := r.get(shareKey(id, asset), line)
	if err == ErrNotFound {
		return nil, errors.Wrapf(crowdfund.ErrShareNotFound, "campaign %s asset %d", id, asset)
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (r *Repository) HasShare(id crowdfund.CampaignID, asset crowdfund.AssetID) (bool, error) {
	return r.has(shareKey(id, asset))
}

func (r *Repository) RemoveShare(id crowdfund.CampaignID, asset crowdfund.AssetID) error {
	return r.del(shareKey(id, asset))
}

// Shares returns the share lines of the campaign ordered by asset.
func (r *Repository) Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error) {
	entries, err := r.collect(sharesPrefix(id), false, 0)
	if err != nil {
		return nil, err
	}
	lines := make([]*crowdfund.ShareLine, 0, len(entries))
	for _, e := range entries {
		line := &crowdfund.ShareLine{}
		if err := Decode(e.val, line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Investments.

func (r *Repository) PutInvestment(inv *crowdfund.Investment) error {
	return r.put(investmentKey(inv.Campaign, inv.Investor), inv)
}

func (r *Repository) Investment(id crowdfund.CampaignID, investor crowdfund.AccountID) (*crowdfund.Investment, error) {
	inv := &crowdfund.Investment{}
	err := r.get(investmentKey(id, investor), inv)
	if err == ErrNotFound {
		return nil, errors.Wrapf(crowdfund.ErrInvestmentNotFound, "campaign %s investor %s", id, investor)
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *Repository) HasInvestment(id crowdfund.CampaignID, investor crowdfund.AccountID) (bool, error) {
	return r.has(investmentKey(id, investor))
}

func (r *Repository) RemoveInvestment(id crowdfund.CampaignID, investor crowdfund.AccountID) error {
	return r.del(investmentKey(id, investor))
}

// Investments returns up to limit investments of the campaign ordered by investor.
// A limit of zero returns all of them.
func (r *Repository) Investments(id crowdfund.CampaignID, limit int) ([]*crowdfund.Investment, error) {
	entries, err := r.collect(investmentsPrefix(id), false, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*crowdfund.Investment, 0, len(entries))
	for _, e := range entries {
		inv := &crowdfund.Investment{}
		if err := Decode(e.val, inv); err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, nil
}

// Payout markers.

// MarkPaid records that the investor received the share line, at most once.
func (r *Repository) MarkPaid(id crowdfund.CampaignID, investor crowdfund.AccountID, asset crowdfund.AssetID) error {
	k := payoutKey(id, investor, asset)
	ok, err := r.has(k)
	if err != nil {
		return err
	}
	if ok {
		return errors.Wrapf(crowdfund.ErrAlreadyPaid, "campaign %s investor %s asset %d", id, investor, asset)
	}
	return errors.Wrap(r.txn.Set(k, []byte{1}), "failed to write key")
}

func (r *Repository) Paid(id crowdfund.CampaignID, investor crowdfund.AccountID, asset crowdfund.AssetID) (bool, error) {
	return r.has(payoutKey(id, investor, asset))
}

// Consumers index investors with outstanding payouts.

func (r *Repository) AddConsumer(investor crowdfund.AccountID, id crowdfund.CampaignID) error {
	return errors.Wrap(r.txn.Set(consumerKey(investor, id), []byte{1}), "failed to write key")
}

func (r *Repository) RemoveConsumer(investor crowdfund.AccountID, id crowdfund.CampaignID) error {
	return r.del(consumerKey(investor, id))
}

func (r *Repository) IsConsumer(investor crowdfund.AccountID, id crowdfund.CampaignID) (bool, error) {
	return r.has(consumerKey(investor, id))
}

// Consumes lists campaigns the investor still expects payouts from.
func (r *Repository) Consumes(investor crowdfund.AccountID) ([]crowdfund.CampaignID, error) {
	prefix := consumersPrefix(investor)
	entries, err := r.collect(prefix, true, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]crowdfund.CampaignID, 0, len(entries))
	for _, e := range entries {
		var id crowdfund.CampaignID
		copy(id[:], e.key[len(prefix):])
		ids = append(ids, id)
	}
	return ids, nil
}
