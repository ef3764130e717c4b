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
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
)

type CallKind string

const (
	CallCreate             CallKind = "create"
	CallCommitShares       CallKind = "commit_shares"
	CallRollbackShares     CallKind = "rollback_shares"
	CallReady              CallKind = "ready"
	CallActivate           CallKind = "activate"
	CallInvest             CallKind = "invest"
	CallIncreaseInvestment CallKind = "increase_investment"
	CallFinish             CallKind = "finish"
	CallPayout             CallKind = "payout"
	CallRaise              CallKind = "raise"
	CallExpire             CallKind = "expire"
	CallRefund             CallKind = "refund"
	CallReleaseShares      CallKind = "release_shares"
)

var calls = map[CallKind]bool{
	CallCreate:             false,
	CallCommitShares:       false,
	CallRollbackShares:     false,
	CallReady:              false,
	CallActivate:           true,
	CallInvest:             false,
	CallIncreaseInvestment: false,
	CallFinish:             true,
	CallPayout:             true,
	CallRaise:              false,
	CallExpire:             true,
	CallRefund:             true,
	CallReleaseShares:      false,
}

// Permissionless calls may be submitted without an origin.
func (k CallKind) Permissionless() bool {
	return calls[k]
}

func (k CallKind) Valid() bool {
	_, ok := calls[k]
	return ok
}

// StepCall maps a system step to the call that performs it.
func StepCall(step engine.Step) (CallKind, bool) {
	switch step {
	case engine.StepActivate:
		return CallActivate, true
	case engine.StepFinish:
		return CallFinish, true
	case engine.StepExpire:
		return CallExpire, true
	case engine.StepRefund:
		return CallRefund, true
	}
	return "", false
}

// Call is one request to the campaign engine. Fields not used by the kind are ignored.
type Call struct {
	Kind     CallKind
	Origin   crowdfund.AccountID
	Campaign crowdfund.CampaignID

	FundAsset crowdfund.AssetID
	Asset     crowdfund.AssetID
	Amount    crowdfund.Balance
	Investor  crowdfund.AccountID

	Start   int64
	End     int64
	SoftCap crowdfund.Balance
	HardCap crowdfund.Balance
}

func (c Call) Validate() error {
	if !c.Kind.Valid() {
		return errors.Wrapf(crowdfund.ErrUnknownCall, "%q", c.Kind)
	}
	if c.Campaign.IsEmpty() {
		return crowdfund.ErrNoCampaign
	}
	if c.Origin.IsEmpty() && !c.Kind.Permissionless() {
		return errors.Wrapf(crowdfund.ErrNoOrigin, "%s", c.Kind)
	}
	return nil
}

type Receipt struct {
	ID       uuid.UUID            `json:"id"`
	Kind     CallKind             `json:"call"`
	Campaign crowdfund.CampaignID `json:"campaign"`
	Time     int64                `json:"time"`
	// Amount is the accepted investment or the paid out share.
	Amount crowdfund.Balance `json:"amount"`
	// Done reports a completed raise, refund or release.
	Done   bool              `json:"done"`
	Events []crowdfund.Event `json:"events"`
}

type result struct {
	amount crowdfund.Balance
	done   bool
}

func execute(tx *engine.Tx, c Call) (result, error) {
	var (
		res result
		err error
	)
	switch c.Kind {
	case CallCreate:
		err = tx.Create(c.Campaign, c.FundAsset)
	case CallCommitShares:
		err = tx.CommitShares(c.Campaign, c.Asset, c.Amount)
	case CallRollbackShares:
		err = tx.RollbackShares(c.Campaign, c.Asset)
	case CallReady:
		err = tx.Ready(c.Campaign, c.Start, c.End, c.SoftCap, c.HardCap)
	case CallActivate:
		err = tx.Activate(c.Campaign)
	case CallInvest:
		res.amount, err = tx.Invest(c.Campaign, c.Amount)
	case CallIncreaseInvestment:
		res.amount, err = tx.IncreaseInvestment(c.Campaign, c.Amount)
	case CallFinish:
		err = tx.Finish(c.Campaign)
	case CallPayout:
		res.amount, err = tx.Payout(c.Campaign, c.Investor, c.Asset)
	case CallRaise:
		res.done, err = tx.Raise(c.Campaign)
	case CallExpire:
		err = tx.Expire(c.Campaign)
	case CallRefund:
		res.done, err = tx.Refund(c.Campaign)
	case CallReleaseShares:
		res.done, err = tx.ReleaseShares(c.Campaign, c.Asset)
	default:
		err = errors.Wrapf(crowdfund.ErrUnknownCall, "%q", c.Kind)
	}
	return res, err
}
