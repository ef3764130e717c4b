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

package crowdfund

import (
	"github.com/pkg/errors"
)

type Status uint8

const (
	StatusIncomplete Status = iota + 1
	StatusReady
	StatusActive
	StatusPayout
	StatusRaise
	StatusRaiseDone
	StatusRefund
	StatusReleaseShares
	StatusRefundDone
)

// Statuses lists every bucket in lifecycle order.
var Statuses = []Status{
	StatusIncomplete,
	StatusReady,
	StatusActive,
	StatusPayout,
	StatusRaise,
	StatusRaiseDone,
	StatusRefund,
	StatusReleaseShares,
	StatusRefundDone,
}

var statusNames = map[Status]string{
	StatusIncomplete:    "incomplete",
	StatusReady:         "ready",
	StatusActive:        "active",
	StatusPayout:        "payout",
	StatusRaise:         "raise",
	StatusRaiseDone:     "raise_done",
	StatusRefund:        "refund",
	StatusReleaseShares: "release_shares",
	StatusRefundDone:    "refund_done",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "unknown"
	}
	return name
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusRaiseDone || s == StatusRefundDone
}

func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Errorf("unknown status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Campaign struct {
	ID        CampaignID `codec:"id" json:"id"`
	Creator   AccountID  `codec:"creator" json:"creator"`
	Account   AccountID  `codec:"account" json:"account"`
	FundAsset AssetID    `codec:"fund_asset" json:"fund_asset"`

	StartTime int64   `codec:"start" json:"start_time"`
	EndTime   int64   `codec:"end" json:"end_time"`
	SoftCap   Balance `codec:"soft_cap" json:"soft_cap"`
	HardCap   Balance `codec:"hard_cap" json:"hard_cap"`

	Raised           Balance `codec:"raised" json:"raised"`
	Refunded         Balance `codec:"refunded" json:"refunded"`
	SharesCount      uint32  `codec:"shares" json:"shares_count"`
	Investors        uint32  `codec:"investors" json:"investors"`
	PayoutsRemaining uint64  `codec:"payouts" json:"payouts_remaining"`

	Status Status `codec:"status" json:"status"`
}

func NewCampaign(id CampaignID, creator AccountID, fund AssetID) *Campaign {
	return &Campaign{
		ID:        id,
		Creator:   creator,
		Account:   EscrowAccount(id),
		FundAsset: fund,
		Status:    StatusIncomplete,
	}
}

func (c *Campaign) HardCapReached() bool {
	return c.Raised >= c.HardCap
}

func (c *Campaign) SoftCapReached() bool {
	return c.Raised >= c.SoftCap
}

// ShareLine is an amount of one asset committed by the creator.
type ShareLine struct {
	Asset       AssetID `codec:"asset" json:"asset"`
	Amount      Balance `codec:"amount" json:"amount"`
	Distributed Balance `codec:"distributed" json:"distributed"`
	// Paid counts investors that already received their part of the line.
	Paid uint32 `codec:"paid" json:"paid"`
}

func (l *ShareLine) Undistributed() Balance {
	return l.Amount - l.Distributed
}

type Investment struct {
	Campaign         CampaignID `codec:"campaign" json:"campaign"`
	Investor         AccountID  `codec:"investor" json:"investor"`
	Amount           Balance    `codec:"amount" json:"amount"`
	Time             int64      `codec:"time" json:"time"`
	PayoutsRemaining uint32     `codec:"payouts" json:"payouts_remaining"`
}
