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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
	"jinr.ru/greenlab/go-qldet/pkg/device/dummy"
	"jinr.ru/greenlab/go-qldet/pkg/srv"
)

// NewSeedCommand fills the register store with a synthetic acquisition
func NewSeedCommand(cfg *config.Config, dbPath *string) *cobra.Command {
	p := srv.DefaultSeedParams()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write QLDET settings and a synthetic DAQ acquisition to the register store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if *dbPath != "" {
				cfg.Server.DBPath = *dbPath
			}
			timeout, err := cfg.DeviceTimeout()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755); err != nil {
				return err
			}
			store, err := dummy.Open(cfg.Server.DBPath, cfg.Server.Alias, timeout)
			if err != nil {
				return err
			}
			dev := device.NewDevice(cfg.Server.Alias, store, nil)
			defer func() {
				if closeErr := dev.Close(); err == nil {
					err = closeErr
				}
			}()
			return srv.Seed(dev, p)
		},
	}
	cmd.Flags().Float64Var(&p.SampleRateHz, "sample-rate", p.SampleRateHz, "Sample rate in Hz")
	cmd.Flags().Float64Var(&p.HalfBandwidthHz, "half-bandwidth", p.HalfBandwidthHz, "Half bandwidth in Hz")
	cmd.Flags().IntVar(&p.DiffGain, "diff-gain", p.DiffGain, "Differential gain 0..7")
	cmd.Flags().BoolVar(&p.Sva, "enable-sva", p.Sva, "Enable slow varying approximation")
	cmd.Flags().IntVar(&p.Samples, "samples", p.Samples, "Number of valid samples")
	cmd.Flags().Float64Var(&p.DetuningAmplitudeHz, "amplitude", p.DetuningAmplitudeHz, "Detuning amplitude in Hz")
	cmd.Flags().Float64Var(&p.Periods, "periods", p.Periods, "Detuning periods over the acquisition")
	return cmd
}
