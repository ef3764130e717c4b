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

package connectivity

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/observability"
)

func TestConnectivity_InMemory(t *testing.T) {
	cfg := configuration.Default()
	cfg.State.InMemory = true

	conn := Make(cfg, observability.Make(cfg))
	require.NotNil(t, conn.State())
	assert.Nil(t, conn.PG())

	err := conn.State().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestConnectivity_Persistent(t *testing.T) {
	dir, err := ioutil.TempDir("", "crowdfund-state")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	cfg := configuration.Default()
	cfg.State.Dir = filepath.Join(dir, "state")
	cfg.Projection.Enabled = true

	conn := Make(cfg, observability.Make(cfg))
	require.NotNil(t, conn.PG())
	require.NoError(t, conn.Close())

	_, err = os.Stat(cfg.State.Dir)
	assert.NoError(t, err)
}

func TestOpenState_NoDir(t *testing.T) {
	cfg := configuration.Default()
	cfg.State.Dir = ""
	_, err := OpenState(cfg.State, observability.Make(cfg).Log())
	assert.Error(t, err)
}
