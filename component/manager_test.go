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

package component

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/connectivity"
	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/dispatch"
	"github.com/insolar/crowdfund/ledger"
	"github.com/insolar/crowdfund/observability"
)

func testConfig() *configuration.Configuration {
	cfg := configuration.Default()
	cfg.State.InMemory = true
	cfg.API.Addr = "127.0.0.1:0"
	cfg.Agent.Schedule = "@every 1s"
	cfg.Genesis = []configuration.Allocation{
		{Account: crowdfund.AccountID{1}.String(), Asset: 2, Amount: 500},
	}
	return cfg
}

func TestManager_StartStop(t *testing.T) {
	cfg := testConfig()
	obs := observability.Make(cfg)
	obs.Log().SetOutput(ioutil.Discard)
	conn := connectivity.Make(cfg, obs)

	m, err := prepare(cfg, obs, conn, &dispatch.DefaultClock{})
	require.NoError(t, err)
	require.NotNil(t, m.agent)
	assert.Nil(t, m.projector)

	b, err := ledger.NewReader(conn.State()).Balance(crowdfund.AccountID{1}, 2)
	require.NoError(t, err)
	assert.Equal(t, crowdfund.Balance(500), b.Free)

	m.Start()
	time.Sleep(10 * time.Millisecond)
	m.Stop()
}

func TestManager_BadGenesis(t *testing.T) {
	cfg := testConfig()
	cfg.Genesis = []configuration.Allocation{{Account: "zz", Asset: 1, Amount: 1}}
	obs := observability.Make(cfg)
	conn := connectivity.Make(cfg, obs)
	defer conn.Close()

	_, err := prepare(cfg, obs, conn, &dispatch.DefaultClock{})
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	cfg := testConfig()
	obs := observability.Make(cfg)
	obs.Log().SetOutput(ioutil.Discard)
	conn := connectivity.Make(cfg, obs)
	defer conn.Close()

	m, err := prepare(cfg, obs, conn, &dispatch.DefaultClock{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.router.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	m.router.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns?status=active", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	m.router.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "crowdfund_campaigns{status=\"active\"} 0"))
}
