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
	"encoding/hex"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	CampaignIDSize = 20
	AccountIDSize  = 32
)

// escrowDomain separates escrow derivation from any other use of the hash.
var escrowDomain = []byte("crowdfund/escrow")

type CampaignID [CampaignIDSize]byte

type AccountID [AccountIDSize]byte

type AssetID uint32

// Balance is the native balance width of the ledger.
type Balance uint64

func NewCampaignIDFromString(s string) (CampaignID, error) {
	var id CampaignID
	if err := decodeFixed(s, id[:]); err != nil {
		return id, errors.Wrap(err, "invalid campaign id")
	}
	return id, nil
}

func NewAccountIDFromString(s string) (AccountID, error) {
	var id AccountID
	if err := decodeFixed(s, id[:]); err != nil {
		return id, errors.Wrap(err, "invalid account id")
	}
	return id, nil
}

func decodeFixed(s string, dst []byte) error {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(buf) != len(dst) {
		return errors.Errorf("expected %d bytes, got %d", len(dst), len(buf))
	}
	copy(dst, buf)
	return nil
}

func (id CampaignID) String() string {
	return hex.EncodeToString(id[:])
}

func (id CampaignID) Bytes() []byte {
	return id[:]
}

func (id CampaignID) IsEmpty() bool {
	return id == CampaignID{}
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) Bytes() []byte {
	return a[:]
}

func (a AccountID) IsEmpty() bool {
	return a == AccountID{}
}

// EscrowAccount derives the account that custodies the campaign's shares and funds.
func EscrowAccount(id CampaignID) AccountID {
	h, err := blake2b.New256(nil)
	if err != nil {
		// unkeyed blake2b never fails
		panic(err)
	}
	_, _ = h.Write(escrowDomain)
	_, _ = h.Write(id[:])
	var acc AccountID
	copy(acc[:], h.Sum(nil))
	return acc
}

// CheckedAdd returns ErrOverflow instead of wrapping.
func CheckedAdd(a, b Balance) (Balance, error) {
	if a > math.MaxUint64-b {
		return 0, errors.Wrapf(ErrOverflow, "%d + %d", a, b)
	}
	return a + b, nil
}

// CheckedSub returns ErrOverflow instead of wrapping below zero.
func CheckedSub(a, b Balance) (Balance, error) {
	if b > a {
		return 0, errors.Wrapf(ErrOverflow, "%d - %d", a, b)
	}
	return a - b, nil
}

func MinBalance(a, b Balance) Balance {
	if a < b {
		return a
	}
	return b
}

func (id CampaignID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *CampaignID) UnmarshalText(text []byte) error {
	parsed, err := NewCampaignIDFromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := NewAccountIDFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
