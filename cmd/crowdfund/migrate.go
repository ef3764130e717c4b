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

package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/dbconn"
)

func migrateCmd() *cobra.Command {
	var (
		dir    string
		doInit bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply projection database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configuration.Load()
			db, err := dbconn.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := dbconn.Migrate(db, dir, doInit); err != nil {
				return errors.Wrapf(err, "failed to migrate from %s", dir)
			}
			logrus.Info("migrated successfully!")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "scripts/migrations", "directory with migrations")
	cmd.Flags().BoolVar(&doInit, "init", false, "perform db init (for empty db)")
	return cmd
}
