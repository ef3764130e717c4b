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

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/configuration"
)

func Test_makeCallMetrics(t *testing.T) {
	obs := Make(configuration.Default())
	metrics := MakeCallMetrics(obs, "applied")
	require.NotNil(t, metrics)
	require.NotNil(t, metrics.ReleaseShares)

	assert.Equal(t, metrics.CommitShares, metrics.ByName("commit_shares"))
	assert.Equal(t, metrics.IncreaseInvestment, metrics.ByName("increase_investment"))
	assert.Nil(t, metrics.ByName("nope"))

	again := MakeCallMetrics(obs, "applied")
	assert.Equal(t, metrics.Invest, again.Invest, "counters are memoised by name")
}

func TestObservability_Gauge(t *testing.T) {
	obs := Make(configuration.Default())
	common := MakeCommonMetrics(obs)
	common.ProposalsPending.Set(3)

	families, err := obs.Metrics().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "crowdfund_proposals_pending" {
			found = true
			assert.Equal(t, float64(3), f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found)

	g := obs.Gauge(prometheus.GaugeOpts{Name: "crowdfund_proposals_pending"})
	assert.Equal(t, common.ProposalsPending, g)
}
