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

const (
	setExample = `
Set 130 Hz half bandwidth keeping the stored differential gain and SVA flag
# go-qldet set devices.dmap 9.027e6 --half-bandwidth=130

Set everything
# go-qldet set devices.dmap 9.027e6 --half-bandwidth=130 --diff-gain=5 --enable-sva
`
)

func NewSetCommand(cfg *config.Config) *cobra.Command {
	var hbw float64
	var diffGain int
	var sva bool
	cmd := &cobra.Command{
		Use:     "set <device-map> <sample-rate>",
		Short:   "Write the QLDET settings",
		Example: setExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseSampleRate(args[1])
			if err != nil {
				return err
			}
			o := pkgqldet.Overrides{}
			if cmd.Flags().Changed(HalfBandwidthOptionName) {
				o.HalfBandwidthHz = &hbw
			}
			if cmd.Flags().Changed(DiffGainOptionName) {
				o.DiffGain = &diffGain
			}
			if cmd.Flags().Changed(EnableSvaOptionName) {
				o.Sva = &sva
			}
			// nothing is written to the device on invalid input
			if err := o.Validate(); err != nil {
				return err
			}
			return withSession(cfg, args[0], func(s *pkgqldet.Session) error {
				status, err := s.Update(fs, o)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&hbw, HalfBandwidthOptionName, 0, "External half bandwidth in Hz, required")
	cmd.Flags().IntVar(&diffGain, DiffGainOptionName, 0, "Differential gain 0..7 (default: stored value)")
	cmd.Flags().BoolVar(&sva, EnableSvaOptionName, false, "Enable slow varying approximation (default: stored value)")
	return cmd
}
