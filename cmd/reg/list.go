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

package reg

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [device-map]",
		Short: "Print the register map, the default one or the one of the device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			regs := device.DefaultRegMap()
			if len(args) == 1 {
				dmap, err := device.LoadDMap(args[0])
				if err != nil {
					return err
				}
				entry, err := dmap.Get(cfg.Device.Alias)
				if err != nil {
					return err
				}
				if entry.MapFile != "" {
					if regs, err = device.LoadRegMap(entry.MapFile); err != nil {
						return err
					}
				}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tADDR\tSHAPE\tACCESS")
			for _, r := range regs.All() {
				shape := fmt.Sprintf("%d", r.Elements)
				if r.IsMatrix() {
					shape = fmt.Sprintf("%dx%d", r.Channels, r.Elements)
				}
				access := "rw"
				if r.ReadOnly {
					access = "ro"
				}
				fmt.Fprintf(w, "%s\t0x%06x\t%s\t%s\n", r.Path, r.Addr, shape, access)
			}
			return w.Flush()
		},
	}
	return cmd
}
