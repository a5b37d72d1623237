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

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
)

func NewReadCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <device-map> <register-path>",
		Short: "Read a scalar or vector register",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cfg, args[0], func(dev *device.Device) error {
				values, err := dev.ReadVector(args[1])
				if err != nil {
					return err
				}
				if len(values) == 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", args[1], values[0])
					return nil
				}
				for i, v := range values {
					fmt.Fprintf(cmd.OutOrStdout(), "%s[%d] = %d\n", args[1], i, v)
				}
				return nil
			})
		},
	}
	return cmd
}
