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

type CampaignSchema struct {
	tableName struct{} `sql:"campaigns"` //nolint: unused,structcheck

	CampaignID    string `sql:",pk"`
	Creator       *string
	FundAsset     *int64
	Status        string `sql:",notnull"`
	Raised        string `sql:",notnull"`
	Destroyed     bool   `sql:",notnull"`
	LastEventTime int64  `sql:",notnull"`
}

// CampaignStorage keeps one row per campaign with the state seen in the latest event.
type CampaignStorage struct {
	log          *logrus.Logger
	errorCounter prometheus.Counter
	db           orm.DB
}

func NewCampaignStorage(obs *observability.Observability, db orm.DB) *CampaignStorage {
	errorCounter := obs.Counter(prometheus.CounterOpts{
		Name: "crowdfund_campaign_storage_error_counter",
		Help: "",
	})
	return &CampaignStorage{
		log:          obs.Log(),
		errorCounter: errorCounter,
		db:           db,
	}
}

func (s *CampaignStorage) Apply(event *crowdfund.Event) error {
	if event == nil {
		s.log.Warnf("trying to apply nil event")
		return nil
	}
	row := campaignSchema(event)

	res, err := s.db.Query(row, `
		insert into campaigns (
			campaign_id,
			creator,
			fund_asset,
			status,
			raised,
			destroyed,
			last_event_time
		) values (
			?,
			?,
			?,
			?,
			?,
			?,
			?
		) on conflict (campaign_id) do update set
			creator = coalesce(campaigns.creator, excluded.creator),
			fund_asset = coalesce(campaigns.fund_asset, excluded.fund_asset),
			status = excluded.status,
			raised = excluded.raised,
			destroyed = campaigns.destroyed or excluded.destroyed,
			last_event_time = excluded.last_event_time`,
		row.CampaignID,
		row.Creator,
		row.FundAsset,
		row.Status,
		row.Raised,
		row.Destroyed,
		row.LastEventTime,
	)
	if err != nil {
		s.errorCounter.Inc()
		s.log.WithField("campaign", row.CampaignID).Error(err)
		return errors.Wrapf(err, "failed to upsert campaign %s", row.CampaignID)
	}

	if res.RowsAffected() == 0 {
		s.errorCounter.Inc()
		s.log.WithField("campaign", row.CampaignID).Errorf("failed to upsert campaign: %v", row)
		return errors.New("failed to upsert, affected is 0")
	}
	return nil
}

func campaignSchema(event *crowdfund.Event) *CampaignSchema {
	row := &CampaignSchema{
		CampaignID:    event.Campaign.String(),
		Status:        event.Status.String(),
		Raised:        strconv.FormatUint(uint64(event.Raised), 10),
		Destroyed:     event.Kind == crowdfund.EventDestroyed,
		LastEventTime: event.Time,
	}
	if event.Kind == crowdfund.EventCreated {
		creator := event.Account.String()
		fund := int64(event.Asset)
		row.Creator = &creator
		row.FundAsset = &fund
	}
	return row
}
