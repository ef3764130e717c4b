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

// Package payout splits committed share lines between investors.
//
// Every investor of a line but the last one receives
//
//	floor(investment * line / raised)
//
// computed on arbitrary precision decimals, and the last one receives whatever
// is left of the line, so a line is always distributed exactly.
package payout

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

func fromBalance(b crowdfund.Balance) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(b)), 0)
}

// Share returns floor(investment * share / raised).
func Share(investment, share, raised crowdfund.Balance) (crowdfund.Balance, error) {
	if raised == 0 {
		return 0, errors.Wrap(crowdfund.ErrCorrupted, "raised amount is zero")
	}
	if investment > raised {
		return 0, errors.Wrapf(crowdfund.ErrCorrupted, "investment %d exceeds raised %d", investment, raised)
	}

	product := fromBalance(investment).Mul(fromBalance(share))
	quotient, _ := product.QuoRem(fromBalance(raised), 0)

	owed := quotient.BigInt()
	if !owed.IsUint64() {
		return 0, errors.Wrapf(crowdfund.ErrOverflow, "share %s does not fit balance", owed)
	}
	return crowdfund.Balance(owed.Uint64()), nil
}

// Owed returns the amount of the line the next investor is entitled to.
// investors is the number of investors the line is split between.
func Owed(investment, raised crowdfund.Balance, line crowdfund.ShareLine, investors uint32) (crowdfund.Balance, error) {
	if line.Distributed > line.Amount {
		return 0, errors.Wrapf(crowdfund.ErrCorrupted, "line %d overdrawn", line.Asset)
	}
	if line.Paid >= investors {
		return 0, errors.Wrapf(crowdfund.ErrCorrupted, "line %d already paid to all %d investors", line.Asset, investors)
	}
	remaining := line.Undistributed()

	// last one takes the rounding dust
	if line.Paid+1 == investors {
		return remaining, nil
	}

	owed, err := Share(investment, line.Amount, raised)
	if err != nil {
		return 0, err
	}
	if owed > remaining {
		return 0, errors.Wrapf(crowdfund.ErrOverflow, "owed %d exceeds remaining %d of line %d", owed, remaining, line.Asset)
	}
	return owed, nil
}
