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
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
)

// NewCommand groups raw register access commands
func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reg",
		Short: "Raw register access for debugging",
	}
	cmd.AddCommand(NewReadCommand(cfg))
	cmd.AddCommand(NewWriteCommand(cfg))
	cmd.AddCommand(NewListCommand(cfg))
	return cmd
}

// withDevice opens the device and runs f. The device is closed when f
// returns and a close error is reported if f succeeded.
func withDevice(cfg *config.Config, dmap string, f func(dev *device.Device) error) (err error) {
	timeout, err := cfg.DeviceTimeout()
	if err != nil {
		return err
	}
	dev, err := device.Open(dmap, cfg.Device.Alias, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dev.Close(); err == nil {
			err = closeErr
		}
	}()
	return f(dev)
}
