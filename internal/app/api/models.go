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

package api

type CreateCampaignRequest struct {
	ID        string `json:"id"`
	FundAsset uint32 `json:"fund_asset"`
}

type CommitSharesRequest struct {
	Asset  uint32 `json:"asset"`
	Amount uint64 `json:"amount"`
}

type ReadyRequest struct {
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	SoftCap uint64 `json:"soft_cap"`
	HardCap uint64 `json:"hard_cap"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type PayoutRequest struct {
	Investor string `json:"investor"`
	Asset    uint32 `json:"asset"`
}

type ListCampaignsParams struct {
	Status string `json:"status"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Asset   uint32 `json:"asset"`
	Free    uint64 `json:"free"`
	Locked  uint64 `json:"locked"`
}
