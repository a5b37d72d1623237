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
	"strconv"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
)

func NewWriteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <device-map> <register-path> <value>...",
		Short: "Write a scalar or the leading elements of a vector register",
		Long:  "Write values to a register. Values are decimal or 0x prefixed hexadecimal 32-bit integers.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]int32, 0, len(args)-2)
			for _, arg := range args[2:] {
				v, err := parseWord(arg)
				if err != nil {
					return err
				}
				values = append(values, v)
			}
			return withDevice(cfg, args[0], func(dev *device.Device) error {
				if len(values) == 1 {
					return dev.WriteScalar(args[1], values[0])
				}
				return dev.WriteVector(args[1], values)
			})
		},
	}
	return cmd
}

// parseWord accepts signed values and unsigned 32-bit hexadecimal words
func parseWord(s string) (int32, error) {
	if v, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int32(v), nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("Wrong register value %q. Must be a 32-bit integer", s)
	}
	return int32(uint32(v)), nil
}
