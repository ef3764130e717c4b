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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/insolar/crowdfund/component"
	"github.com/insolar/crowdfund/configuration"
)

var Version string

var stop = make(chan os.Signal, 1)

func main() {
	root := &cobra.Command{
		Use:          "crowdfund",
		Short:        "Escrow ledger for crowdfunding campaigns",
		SilenceUsage: true,
	}
	root.AddCommand(nodeCmd(), migrateCmd(), configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Run the node: state, call API, advancement agent and projection",
		Run: func(cmd *cobra.Command, args []string) {
			if Version != "" {
				logrus.Infof("crowdfund version=%s", Version)
			}
			manager := component.Prepare()
			manager.Start()
			graceful(manager.Stop)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := configuration.Dump(configuration.Load())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func graceful(that func()) {
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("gracefully stopping...")
	that()
}
