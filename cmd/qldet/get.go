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

package qldet

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	pkgqldet "jinr.ru/greenlab/go-qldet/pkg/qldet"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <device-map> <sample-rate>",
		Short: "Print the current QLDET settings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseSampleRate(args[1])
			if err != nil {
				return err
			}
			return withSession(cfg, args[0], func(s *pkgqldet.Session) error {
				status, err := s.Params(fs)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	return cmd
}
