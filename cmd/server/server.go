/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/srv"
)

const (
	AddressOptionName = "address"
	ApiPortOptionName = "api-port"
	RegPortOptionName = "reg-port"
	DBOptionName      = "db"
)

const (
	serverExample = `
Serve a register store, then use it from a device map
# go-qldet server --db=/tmp/bench.db
# echo "CtrlBoard http://localhost:8010" > bench.dmap
# go-qldet get bench.dmap 1e6
`
)

// NewCommand creates the register server command
func NewCommand(cfg *config.Config) *cobra.Command {
	var address, dbPath string
	var apiPort, regPort int
	cmd := &cobra.Command{
		Use:     "server",
		Short:   "Serve a register store over HTTP and MLink/UDP",
		Example: serverExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServerFlags(cmd, cfg, address, dbPath, apiPort, regPort)
			timeout, err := cfg.DeviceTimeout()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s, err := srv.NewRegServer(ctx, cfg.Server, timeout)
			if err != nil {
				return err
			}
			return s.Run()
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, DBOptionName, "", fmt.Sprintf("Register database file (default %s)", config.DefaultDBPath()))
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Address to bind (default %s)", config.DefaultAddress))
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, config.DefaultApiPort, "HTTP API port")
	cmd.Flags().IntVar(&regPort, RegPortOptionName, config.DefaultRegPort, "MLink register port")
	cmd.AddCommand(NewSeedCommand(cfg, &dbPath))
	return cmd
}

func applyServerFlags(cmd *cobra.Command, cfg *config.Config, address, dbPath string, apiPort, regPort int) {
	if address != "" {
		cfg.Server.Address = address
	}
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	if cmd.Flags().Changed(ApiPortOptionName) {
		cfg.Server.ApiPort = apiPort
	}
	if cmd.Flags().Changed(RegPortOptionName) {
		cfg.Server.RegPort = regPort
	}
}
