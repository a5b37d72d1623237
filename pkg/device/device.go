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

package device

import (
	"fmt"

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

type Device struct {
	Alias string
	// Privileged allows writes to read only registers, used to seed test data
	Privileged bool
	backend    deviceifc.Backend
	regs       *RegMap
}

var _ deviceifc.Device = &Device{}

// NewDevice ...
func NewDevice(alias string, backend deviceifc.Backend, regs *RegMap) *Device {
	if regs == nil {
		regs = DefaultRegMap()
	}
	return &Device{
		Alias:   alias,
		backend: backend,
		regs:    regs,
	}
}

// Registers ...
func (d *Device) Registers() *RegMap {
	return d.regs
}

// Backend ...
func (d *Device) Backend() deviceifc.Backend {
	return d.backend
}

func (d *Device) lookup(op, path string) (*Register, error) {
	reg, err := d.regs.Get(path)
	if err != nil {
		return nil, ErrDevice{Op: op, Path: path, Err: err}
	}
	return reg, nil
}

func (d *Device) read(path string, matrix bool) (*Register, []uint32, error) {
	reg, err := d.lookup("read", path)
	if err != nil {
		return nil, nil, err
	}
	if reg.IsMatrix() != matrix {
		return nil, nil, ErrDevice{Op: "read", Path: path, Err: ErrShape{Path: path, What: shapeName(reg)}}
	}
	log.Debug("Reading %s: addr=0x%06x words=%d", path, reg.Addr, reg.Words())
	data, err := d.backend.ReadArea(reg.Addr, reg.Words())
	if err != nil {
		return nil, nil, ErrDevice{Op: "read", Path: path, Err: err}
	}
	if uint32(len(data)) != reg.Words() {
		return nil, nil, ErrDevice{Op: "read", Path: path,
			Err: fmt.Errorf("Got %d words, expected %d", len(data), reg.Words())}
	}
	return reg, data, nil
}

func (d *Device) write(path string, matrix bool, data func(reg *Register) ([]uint32, error)) error {
	reg, err := d.lookup("write", path)
	if err != nil {
		return err
	}
	if reg.ReadOnly && !d.Privileged {
		return ErrDevice{Op: "write", Path: path, Err: ErrReadOnly{Path: path}}
	}
	if reg.IsMatrix() != matrix {
		return ErrDevice{Op: "write", Path: path, Err: ErrShape{Path: path, What: shapeName(reg)}}
	}
	words, err := data(reg)
	if err != nil {
		return ErrDevice{Op: "write", Path: path, Err: err}
	}
	log.Debug("Writing %s: addr=0x%06x words=%d", path, reg.Addr, len(words))
	if err := d.backend.WriteArea(reg.Addr, words); err != nil {
		return ErrDevice{Op: "write", Path: path, Err: err}
	}
	return nil
}

func shapeName(reg *Register) string {
	if reg.IsMatrix() {
		return fmt.Sprintf("register is %dx%d", reg.Channels, reg.Elements)
	}
	return fmt.Sprintf("register is a vector of %d", reg.Elements)
}

// ReadScalar reads the first element of a register
func (d *Device) ReadScalar(path string) (int32, error) {
	_, data, err := d.read(path, false)
	if err != nil {
		return 0, err
	}
	return int32(data[0]), nil
}

// WriteScalar writes the first element of a register
func (d *Device) WriteScalar(path string, value int32) error {
	return d.write(path, false, func(reg *Register) ([]uint32, error) {
		return []uint32{uint32(value)}, nil
	})
}

// ReadVector ...
func (d *Device) ReadVector(path string) ([]int32, error) {
	_, data, err := d.read(path, false)
	if err != nil {
		return nil, err
	}
	result := make([]int32, len(data))
	for i, w := range data {
		result[i] = int32(w)
	}
	return result, nil
}

// WriteVector writes the leading elements of a register
func (d *Device) WriteVector(path string, values []int32) error {
	return d.write(path, false, func(reg *Register) ([]uint32, error) {
		if uint32(len(values)) > reg.Elements {
			return nil, ErrShape{Path: path, What: fmt.Sprintf("%d values do not fit %d elements", len(values), reg.Elements)}
		}
		words := make([]uint32, len(values))
		for i, v := range values {
			words[i] = uint32(v)
		}
		return words, nil
	})
}

// ReadMatrix de-multiplexes a 2-D register into [channel][sample]
func (d *Device) ReadMatrix(path string) ([][]int32, error) {
	reg, data, err := d.read(path, true)
	if err != nil {
		return nil, err
	}
	result := make([][]int32, reg.Channels)
	for ch := range result {
		result[ch] = make([]int32, reg.Elements)
	}
	for i, w := range data {
		result[uint32(i)%reg.Channels][uint32(i)/reg.Channels] = int32(w)
	}
	return result, nil
}

// WriteMatrix multiplexes [channel][sample] values into a 2-D register.
// All channels must be given, every channel with the same number of samples.
func (d *Device) WriteMatrix(path string, values [][]int32) error {
	return d.write(path, true, func(reg *Register) ([]uint32, error) {
		if uint32(len(values)) != reg.Channels {
			return nil, ErrShape{Path: path, What: fmt.Sprintf("got %d channels, expected %d", len(values), reg.Channels)}
		}
		samples := len(values[0])
		if uint32(samples) > reg.Elements {
			return nil, ErrShape{Path: path, What: fmt.Sprintf("%d samples do not fit %d elements", samples, reg.Elements)}
		}
		words := make([]uint32, samples*len(values))
		for ch, channel := range values {
			if len(channel) != samples {
				return nil, ErrShape{Path: path, What: fmt.Sprintf("channel %d has %d samples, expected %d", ch, len(channel), samples)}
			}
			for s, v := range channel {
				words[s*len(values)+ch] = uint32(v)
			}
		}
		return words, nil
	})
}

// Close ...
func (d *Device) Close() error {
	log.Debug("Closing device %s", d.Alias)
	if err := d.backend.Close(); err != nil {
		return ErrDevice{Op: "close", Err: err}
	}
	return nil
}
