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

type EventKind string

const (
	EventCreated          EventKind = "created"
	EventSharesCommitted  EventKind = "shares_committed"
	EventSharesRolledBack EventKind = "shares_rolled_back"
	EventStatusChanged    EventKind = "status_changed"
	EventInvested         EventKind = "invested"
	EventPaidOut          EventKind = "paid_out"
	EventRefunded         EventKind = "refunded"
	EventRaised           EventKind = "raised"
	EventSharesReleased   EventKind = "shares_released"
	EventDestroyed        EventKind = "destroyed"
)

// Event is emitted by a call and only becomes visible once the call is committed.
type Event struct {
	Kind     EventKind  `json:"kind"`
	Campaign CampaignID `json:"campaign"`
	Account  AccountID  `json:"account"`
	Asset    AssetID    `json:"asset"`
	Amount   Balance    `json:"amount"`
	// Status and Raised are the campaign state right after the event.
	Status Status  `json:"status"`
	Raised Balance `json:"raised"`
	Time   int64   `json:"time"`
}
