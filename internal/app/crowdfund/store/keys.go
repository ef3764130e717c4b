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
	"encoding/binary"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// Key prefixes of the state database. The asset ledger owns prefix 'a'.
const (
	prefixCampaign   byte = 'c'
	prefixStatus     byte = 's'
	prefixShare      byte = 'l'
	prefixInvestment byte = 'i'
	prefixPayout     byte = 'p'
	prefixConsumer   byte = 'u'
	prefixRetired    byte = 'r'
)

func key(prefix byte, parts ...[]byte) []byte {
	size := 1
	for _, p := range parts {
		size += len(p)
	}
	k := make([]byte, 0, size)
	k = append(k, prefix)
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}

func assetBytes(asset crowdfund.AssetID) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(asset))
	return buf
}

func bucketPrefix(status crowdfund.Status) []byte {
	return key(prefixCampaign, []byte{byte(status)})
}

func campaignKey(status crowdfund.Status, id crowdfund.CampaignID) []byte {
	return key(prefixCampaign, []byte{byte(status)}, id.Bytes())
}

func statusKey(id crowdfund.CampaignID) []byte {
	return key(prefixStatus, id.Bytes())
}

func sharesPrefix(id crowdfund.CampaignID) []byte {
	return key(prefixShare, id.Bytes())
}

func shareKey(id crowdfund.CampaignID, asset crowdfund.AssetID) []byte {
	return key(prefixShare, id.Bytes(), assetBytes(asset))
}

func investmentsPrefix(id crowdfund.CampaignID) []byte {
	return key(prefixInvestment, id.Bytes())
}

func investmentKey(id crowdfund.CampaignID, investor crowdfund.AccountID) []byte {
	return key(prefixInvestment, id.Bytes(), investor.Bytes())
}

func payoutKey(id crowdfund.CampaignID, investor crowdfund.AccountID, asset crowdfund.AssetID) []byte {
	return key(prefixPayout, id.Bytes(), investor.Bytes(), assetBytes(asset))
}

func consumersPrefix(investor crowdfund.AccountID) []byte {
	return key(prefixConsumer, investor.Bytes())
}

func consumerKey(investor crowdfund.AccountID, id crowdfund.CampaignID) []byte {
	return key(prefixConsumer, investor.Bytes(), id.Bytes())
}

// retiredKey marks an id whose campaign was destroyed. Payout markers of the
// id are still present, so the id can not be used again.
func retiredKey(id crowdfund.CampaignID) []byte {
	return key(prefixRetired, id.Bytes())
}
