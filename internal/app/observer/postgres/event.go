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

package postgres

import (
	"strconv"

	"github.com/go-pg/pg/orm"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/observability"
)

type EventSchema struct {
	tableName struct{} `sql:"campaign_events"` //nolint: unused,structcheck

	ID         int64  `sql:",pk"`
	CampaignID string `sql:",notnull"`
	Kind       string `sql:",notnull"`
	Account    string `sql:",notnull"`
	Asset      int64  `sql:",notnull"`
	Amount     string `sql:",notnull"`
	Status     string `sql:",notnull"`
	Raised     string `sql:",notnull"`
	EventTime  int64  `sql:",notnull"`
}

type EventStorage struct {
	log          *logrus.Logger
	errorCounter prometheus.Counter
	db           orm.DB
}

func NewEventStorage(obs *observability.Observability, db orm.DB) *EventStorage {
	errorCounter := obs.Counter(prometheus.CounterOpts{
		Name: "crowdfund_event_storage_error_counter",
		Help: "",
	})
	return &EventStorage{
		log:          obs.Log(),
		errorCounter: errorCounter,
		db:           db,
	}
}

func (s *EventStorage) Insert(event *crowdfund.Event) error {
	if event == nil {
		s.log.Warnf("trying to insert nil event")
		return nil
	}
	row := eventSchema(event)

	res, err := s.db.Query(row, `
		insert into campaign_events (
			campaign_id,
			kind,
			account,
			asset,
			amount,
			status,
			raised,
			event_time
		) values (
			?,
			?,
			?,
			?,
			?,
			?,
			?,
			?
		)`,
		row.CampaignID,
		row.Kind,
		row.Account,
		row.Asset,
		row.Amount,
		row.Status,
		row.Raised,
		row.EventTime,
	)
	if err != nil {
		s.errorCounter.Inc()
		s.log.WithField("campaign", row.CampaignID).Error(err)
		return errors.Wrapf(err, "failed to insert %s event", row.Kind)
	}

	if res.RowsAffected() == 0 {
		s.errorCounter.Inc()
		s.log.WithField("campaign", row.CampaignID).Errorf("failed to insert event: %v", row)
		return errors.New("failed to insert, affected is 0")
	}
	return nil
}

func eventSchema(event *crowdfund.Event) *EventSchema {
	return &EventSchema{
		CampaignID: event.Campaign.String(),
		Kind:       string(event.Kind),
		Account:    event.Account.String(),
		Asset:      int64(event.Asset),
		Amount:     strconv.FormatUint(uint64(event.Amount), 10),
		Status:     event.Status.String(),
		Raised:     strconv.FormatUint(uint64(event.Raised), 10),
		EventTime:  event.Time,
	}
}
