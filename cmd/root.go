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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/cmd/completion"
	"jinr.ru/greenlab/go-qldet/cmd/config"
	"jinr.ru/greenlab/go-qldet/cmd/qldet"
	"jinr.ru/greenlab/go-qldet/cmd/reg"
	"jinr.ru/greenlab/go-qldet/cmd/server"
	pkgconfig "jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
	AliasOptionName    = "alias"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath, alias string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:           "go-qldet",
		Short:         "Tool to set up the QLDET block of LLRF controllers",
		Version:       pkgconfig.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("Can not load config %s: %w", cfg.Path(), err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if alias != "" {
				cfg.Device.Alias = alias
				cfg.Server.Alias = alias
			}
			return log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(qldet.NewSetCommand(cfg))
	cmd.AddCommand(qldet.NewGetCommand(cfg))
	cmd.AddCommand(qldet.NewPlotCommand(cfg))
	cmd.AddCommand(qldet.NewTraceCommand(cfg))
	cmd.AddCommand(reg.NewCommand(cfg))
	cmd.AddCommand(server.NewCommand(cfg))
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "", fmt.Sprintf("Config file (default %s)", pkgconfig.DefaultConfigPath()))
	cmd.PersistentFlags().StringVar(&alias, AliasOptionName, "", fmt.Sprintf("Device alias in the device map (default %s)", pkgconfig.DefaultAlias))
	return cmd
}
