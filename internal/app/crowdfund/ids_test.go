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
	"encoding/json"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrowAccount(t *testing.T) {
	a := CampaignID{1}
	b := CampaignID{2}

	require.Equal(t, EscrowAccount(a), EscrowAccount(a))
	require.NotEqual(t, EscrowAccount(a), EscrowAccount(b))
	require.False(t, EscrowAccount(a).IsEmpty())
}

func TestCampaignID_Parse(t *testing.T) {
	id := CampaignID{0xde, 0xad, 0xbe, 0xef}

	parsed, err := NewCampaignIDFromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewCampaignIDFromString("deadbeef")
	assert.Error(t, err)

	_, err = NewCampaignIDFromString("not hex")
	assert.Error(t, err)
}

func TestAccountID_JSON(t *testing.T) {
	acc := AccountID{7, 7, 7}
	buf, err := json.Marshal(struct {
		Account AccountID `json:"account"`
	}{acc})
	require.NoError(t, err)
	assert.Contains(t, string(buf), acc.String())

	var back struct {
		Account AccountID `json:"account"`
	}
	require.NoError(t, json.Unmarshal(buf, &back))
	assert.Equal(t, acc, back.Account)
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := CheckedAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, Balance(3), sum)

	_, err = CheckedAdd(math.MaxUint64, 1)
	assert.True(t, Is(err, ErrOverflow))
	assert.Equal(t, KindInvariant, KindOf(err))

	_, err = CheckedSub(1, 2)
	assert.True(t, Is(err, ErrOverflow))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindConflict, KindOf(errors.Wrap(ErrTooMuchShares, "commit")))
	assert.Equal(t, KindNotFound, KindOf(ErrCampaignNotFound))
	assert.Equal(t, "resource", KindOf(ErrInsufficientBalance).String())
}

func TestStatus_Text(t *testing.T) {
	for _, s := range Statuses {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseStatus("nope")
	assert.Error(t, err)
	assert.True(t, StatusRaiseDone.Terminal())
	assert.False(t, StatusRefund.Terminal())
}
