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

package engine

import (
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/payout"
)

func (tx *Tx) Create(id crowdfund.CampaignID, fund crowdfund.AssetID) error {
	c := crowdfund.NewCampaign(id, tx.origin, fund)
	if err := tx.repo.Insert(c); err != nil {
		return err
	}
	tx.emit(crowdfund.EventCreated, c, tx.origin, fund, 0)
	return nil
}

func (tx *Tx) CommitShares(id crowdfund.CampaignID, asset crowdfund.AssetID, amount crowdfund.Balance) error {
	if amount == 0 {
		return crowdfund.ErrZeroAmount
	}
	c, err := tx.load(id, crowdfund.StatusIncomplete)
	if err != nil {
		return err
	}
	if err := tx.creatorOnly(c); err != nil {
		return err
	}
	if asset == c.FundAsset {
		return errors.Wrapf(crowdfund.ErrAssetMismatch, "asset %d is the fund asset", asset)
	}
	if c.SharesCount >= tx.env.MaxShares {
		return errors.Wrapf(crowdfund.ErrTooMuchShares, "campaign %s has %d lines", id, c.SharesCount)
	}
	exists, err := tx.repo.HasShare(id, asset)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(crowdfund.ErrShareExists, "campaign %s asset %d", id, asset)
	}

	if err := tx.move(c.Creator, c.Account, asset, amount); err != nil {
		return err
	}
	if err := tx.assets.Lock(c.Account, asset, amount); err != nil {
		return err
	}
	if err := tx.repo.PutShare(id, &crowdfund.ShareLine{Asset: asset, Amount: amount}); err != nil {
		return err
	}
	c.SharesCount++
	if err := tx.repo.Update(c); err != nil {
		return err
	}
	tx.emit(crowdfund.EventSharesCommitted, c, c.Creator, asset, amount)
	return nil
}

func (tx *Tx) RollbackShares(id crowdfund.CampaignID, asset crowdfund.AssetID) error {
	c, err := tx.load(id, crowdfund.StatusIncomplete)
	if err != nil {
		return err
	}
	if err := tx.creatorOnly(c); err != nil {
		return err
	}
	if c.SharesCount == 0 {
		return errors.Wrapf(crowdfund.ErrNoShares, "campaign %s", id)
	}
	line, err := tx.repo.Share(id, asset)
	if err != nil {
		return err
	}
	if err := tx.release(c, c.Creator, asset, line.Amount); err != nil {
		return err
	}
	if err := tx.repo.RemoveShare(id, asset); err != nil {
		return err
	}
	c.SharesCount--
	if err := tx.repo.Update(c); err != nil {
		return err
	}
	tx.emit(crowdfund.EventSharesRolledBack, c, c.Creator, asset, line.Amount)
	return nil
}

func (tx *Tx) Ready(id crowdfund.CampaignID, start, end int64, soft, hard crowdfund.Balance) error {
	if start >= end {
		return errors.Wrapf(crowdfund.ErrInvalidWindow, "[%d, %d)", start, end)
	}
	if soft == 0 || soft > hard {
		return errors.Wrapf(crowdfund.ErrInvalidCaps, "soft %d hard %d", soft, hard)
	}
	c, err := tx.load(id, crowdfund.StatusIncomplete)
	if err != nil {
		return err
	}
	if err := tx.creatorOnly(c); err != nil {
		return err
	}
	if c.SharesCount == 0 {
		return errors.Wrapf(crowdfund.ErrNoShares, "campaign %s", id)
	}
	c.StartTime, c.EndTime = start, end
	c.SoftCap, c.HardCap = soft, hard
	return tx.transit(c, crowdfund.StatusReady)
}

func (tx *Tx) Activate(id crowdfund.CampaignID) error {
	c, err := tx.load(id, crowdfund.StatusReady, crowdfund.StatusActive)
	if err != nil {
		return err
	}
	if c.Status == crowdfund.StatusActive {
		return nil
	}
	if err := CheckActivate(c, tx.now); err != nil {
		return err
	}
	return tx.transit(c, crowdfund.StatusActive)
}

// Invest accepts up to amount of the fund asset and returns what was accepted.
func (tx *Tx) Invest(id crowdfund.CampaignID, amount crowdfund.Balance) (crowdfund.Balance, error) {
	if amount == 0 {
		return 0, crowdfund.ErrZeroAmount
	}
	c, err := tx.load(id, crowdfund.StatusActive)
	if err != nil {
		return 0, err
	}
	if err := CheckInvest(c, tx.now); err != nil {
		return 0, err
	}
	accepted := crowdfund.MinBalance(amount, c.HardCap-c.Raised)
	if err := tx.move(tx.origin, c.Account, c.FundAsset, accepted); err != nil {
		return 0, err
	}

	inv, err := tx.repo.Investment(id, tx.origin)
	switch {
	case crowdfund.Is(err, crowdfund.ErrInvestmentNotFound):
		inv = &crowdfund.Investment{Campaign: id, Investor: tx.origin, Time: tx.now}
		if c.Investors == ^uint32(0) {
			return 0, errors.Wrap(crowdfund.ErrOverflow, "investors")
		}
		c.Investors++
		if err := tx.repo.AddConsumer(tx.origin, id); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}

	if inv.Amount, err = crowdfund.CheckedAdd(inv.Amount, accepted); err != nil {
		return 0, err
	}
	if c.Raised, err = crowdfund.CheckedAdd(c.Raised, accepted); err != nil {
		return 0, err
	}
	if c.PayoutsRemaining < uint64(inv.PayoutsRemaining) {
		return 0, errors.Wrapf(crowdfund.ErrCorrupted, "campaign %s payouts below investment payouts", id)
	}
	c.PayoutsRemaining = c.PayoutsRemaining - uint64(inv.PayoutsRemaining) + uint64(c.SharesCount)
	inv.PayoutsRemaining = c.SharesCount
	if err := tx.repo.PutInvestment(inv); err != nil {
		return 0, err
	}

	if c.HardCapReached() {
		if err := tx.transit(c, crowdfund.StatusPayout); err != nil {
			return 0, err
		}
	} else if err := tx.repo.Update(c); err != nil {
		return 0, err
	}
	tx.emit(crowdfund.EventInvested, c, tx.origin, c.FundAsset, accepted)
	return accepted, nil
}

// IncreaseInvestment tops up an investment that owes nothing.
func (tx *Tx) IncreaseInvestment(id crowdfund.CampaignID, amount crowdfund.Balance) (crowdfund.Balance, error) {
	if _, err := tx.repo.Status(id); err != nil {
		return 0, err
	}
	inv, err := tx.repo.Investment(id, tx.origin)
	if err != nil {
		return 0, err
	}
	if inv.PayoutsRemaining != 0 {
		return 0, errors.Wrapf(crowdfund.ErrOutstandingPayouts, "investment owes %d payouts", inv.PayoutsRemaining)
	}
	return tx.Invest(id, amount)
}

func (tx *Tx) Finish(id crowdfund.CampaignID) error {
	c, err := tx.load(id, crowdfund.StatusActive)
	if err != nil {
		return err
	}
	if err := CheckFinish(c, tx.now); err != nil {
		return err
	}
	return tx.transit(c, crowdfund.StatusPayout)
}

// Payout transfers the investor's part of one share line and returns it.
func (tx *Tx) Payout(id crowdfund.CampaignID, investor crowdfund.AccountID, asset crowdfund.AssetID) (crowdfund.Balance, error) {
	c, err := tx.load(id, crowdfund.StatusPayout)
	if err != nil {
		return 0, err
	}
	inv, err := tx.repo.Investment(id, investor)
	if err != nil {
		return 0, err
	}
	line, err := tx.repo.Share(id, asset)
	if err != nil {
		return 0, err
	}
	if err := tx.repo.MarkPaid(id, investor, asset); err != nil {
		return 0, err
	}
	owed, err := payout.Owed(inv.Amount, c.Raised, *line, c.Investors)
	if err != nil {
		return 0, errors.Wrapf(err, "campaign %s asset %d", id, asset)
	}
	if err := tx.release(c, investor, asset, owed); err != nil {
		return 0, err
	}

	line.Paid++
	line.Distributed += owed
	if err := tx.repo.PutShare(id, line); err != nil {
		return 0, err
	}
	if inv.PayoutsRemaining == 0 || c.PayoutsRemaining == 0 {
		return 0, errors.Wrapf(crowdfund.ErrCorrupted, "campaign %s has no payouts left for %s", id, investor)
	}
	inv.PayoutsRemaining--
	c.PayoutsRemaining--
	if err := tx.repo.PutInvestment(inv); err != nil {
		return 0, err
	}
	if inv.PayoutsRemaining == 0 {
		if err := tx.repo.RemoveConsumer(investor, id); err != nil {
			return 0, err
		}
	}

	if c.PayoutsRemaining == 0 {
		if err := tx.transit(c, crowdfund.StatusRaise); err != nil {
			return 0, err
		}
	} else if err := tx.repo.Update(c); err != nil {
		return 0, err
	}
	tx.emit(crowdfund.EventPaidOut, c, investor, asset, owed)
	return owed, nil
}

// Raise settles a paid out campaign. Every call drains a batch of investment
// records; the call that finds none left hands the raised funds to the
// creator and destroys the campaign. It reports whether the campaign is done.
func (tx *Tx) Raise(id crowdfund.CampaignID) (bool, error) {
	c, err := tx.load(id, crowdfund.StatusPayout, crowdfund.StatusRaise)
	if err != nil {
		return false, err
	}
	if err := tx.creatorOnly(c); err != nil {
		return false, err
	}
	if c.Status == crowdfund.StatusPayout {
		return false, errors.Wrapf(crowdfund.ErrPayoutsPending, "campaign %s owes %d payouts", id, c.PayoutsRemaining)
	}

	batch, err := tx.repo.Investments(id, tx.env.DrainBatch)
	if err != nil {
		return false, err
	}
	for _, inv := range batch {
		if err := tx.repo.RemoveInvestment(id, inv.Investor); err != nil {
			return false, err
		}
	}
	if len(batch) > 0 {
		return false, nil
	}

	picked, ok, err := tx.assets.PickFraction(c.Account, c.FundAsset)
	if err != nil {
		return false, err
	}
	if !ok || picked != c.Raised {
		return false, errors.Wrapf(crowdfund.ErrCorrupted, "escrow of campaign %s holds %d, raised %d", id, picked, c.Raised)
	}
	if err := tx.assets.Credit(c.Creator, c.FundAsset, picked); err != nil {
		return false, err
	}
	if err := tx.transit(c, crowdfund.StatusRaiseDone); err != nil {
		return false, err
	}
	tx.emit(crowdfund.EventRaised, c, c.Creator, c.FundAsset, picked)
	return true, tx.destroy(c)
}

// Expire moves a failed campaign to refunding and refunds the first batch.
func (tx *Tx) Expire(id crowdfund.CampaignID) error {
	c, err := tx.load(id, crowdfund.StatusActive)
	if err != nil {
		return err
	}
	if err := CheckExpire(c, tx.now); err != nil {
		return err
	}
	if err := tx.transit(c, crowdfund.StatusRefund); err != nil {
		return err
	}
	_, err = tx.refundBatch(c)
	return err
}

// Refund returns the next batch of investments and reports whether all are refunded.
func (tx *Tx) Refund(id crowdfund.CampaignID) (bool, error) {
	c, err := tx.load(id, crowdfund.StatusRefund)
	if err != nil {
		return false, err
	}
	return tx.refundBatch(c)
}

func (tx *Tx) refundBatch(c *crowdfund.Campaign) (bool, error) {
	batch, err := tx.repo.Investments(c.ID, tx.env.DrainBatch)
	if err != nil {
		return false, err
	}
	for _, inv := range batch {
		if err := tx.move(c.Account, inv.Investor, c.FundAsset, inv.Amount); err != nil {
			return false, err
		}
		if err := tx.repo.RemoveInvestment(c.ID, inv.Investor); err != nil {
			return false, err
		}
		if err := tx.repo.RemoveConsumer(inv.Investor, c.ID); err != nil {
			return false, err
		}
		if c.Raised, err = crowdfund.CheckedSub(c.Raised, inv.Amount); err != nil {
			return false, err
		}
		if c.Refunded, err = crowdfund.CheckedAdd(c.Refunded, inv.Amount); err != nil {
			return false, err
		}
		if c.PayoutsRemaining < uint64(inv.PayoutsRemaining) {
			return false, errors.Wrapf(crowdfund.ErrCorrupted, "campaign %s payouts below investment payouts", c.ID)
		}
		c.PayoutsRemaining -= uint64(inv.PayoutsRemaining)
		tx.emit(crowdfund.EventRefunded, c, inv.Investor, c.FundAsset, inv.Amount)
	}

	rest, err := tx.repo.Investments(c.ID, 1)
	if err != nil {
		return false, err
	}
	if len(rest) > 0 {
		return false, tx.repo.Update(c)
	}
	return true, tx.transit(c, crowdfund.StatusReleaseShares)
}

// ReleaseShares returns one share line to the creator and reports whether it was the last one.
func (tx *Tx) ReleaseShares(id crowdfund.CampaignID, asset crowdfund.AssetID) (bool, error) {
	c, err := tx.load(id, crowdfund.StatusReleaseShares)
	if err != nil {
		return false, err
	}
	if err := tx.creatorOnly(c); err != nil {
		return false, err
	}
	line, err := tx.repo.Share(id, asset)
	if err != nil {
		return false, err
	}
	amount := line.Undistributed()
	if err := tx.release(c, c.Creator, asset, amount); err != nil {
		return false, err
	}
	if err := tx.repo.RemoveShare(id, asset); err != nil {
		return false, err
	}
	tx.emit(crowdfund.EventSharesReleased, c, c.Creator, asset, amount)

	rest, err := tx.repo.Shares(id)
	if err != nil {
		return false, err
	}
	if len(rest) > 0 {
		return false, nil
	}
	if err := tx.transit(c, crowdfund.StatusRefundDone); err != nil {
		return false, err
	}
	return true, tx.destroy(c)
}
