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
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

// Register describes one register area. Addresses and sizes are in 32-bit words.
// Two-dimensional registers are channel multiplexed: the word of sample s
// of channel c is at Addr + s*Channels + c.
type Register struct {
	Path     string `json:"path"`
	Addr     uint32 `json:"addr"`
	Elements uint32 `json:"elements"`
	Channels uint32 `json:"channels,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
}

// Words is the size of the register area
func (r *Register) Words() uint32 {
	if r.Channels > 0 {
		return r.Elements * r.Channels
	}
	return r.Elements
}

func (r *Register) IsMatrix() bool {
	return r.Channels > 0
}

const (
	DaqBufferAddr     uint32 = 0x10000
	DaqBufferSamples  uint32 = 4096
	DaqBufferChannels uint32 = 16
)

// DefaultRegisters is the register map of the LLRF controller firmware.
// more registers exist in the firmware, only those used here are listed
var DefaultRegisters = []*Register{
	{Path: "/APP/WORD_PIEZO_PRO_SEL", Addr: 0x0100, Elements: 1},
	{Path: "/APP/WORD_PIEZO_FOR_SEL", Addr: 0x0101, Elements: 1},
	{Path: "/APP/WORD_PIEZO_REF_SEL", Addr: 0x0102, Elements: 1},
	{Path: "/LLRF_QLDET/BIT_SVA", Addr: 0x0200, Elements: 1},
	{Path: "/LLRF_QLDET/BIT_BEAM_SRC", Addr: 0x0201, Elements: 1},
	{Path: "/LLRF_QLDET/WORD_K", Addr: 0x0202, Elements: 1},
	{Path: "/LLRF_QLDET/WORD_B", Addr: 0x0203, Elements: 1},
	{Path: "/LLRF_QLDET/WORD_BEAM_EXT_I", Addr: 0x0204, Elements: 1},
	{Path: "/LLRF_QLDET/WORD_BEAM_EXT_Q", Addr: 0x0205, Elements: 1},
	{Path: "/LLRF_QLDET/WORD_DIFF_GAIN", Addr: 0x0206, Elements: 1},
	{Path: "/DAQ/WORD_SAMPLES", Addr: 0x0300, Elements: 4, ReadOnly: true},
	{Path: "/app_daq/DAQ_FD_BUF0", Addr: DaqBufferAddr, Elements: DaqBufferSamples, Channels: DaqBufferChannels, ReadOnly: true},
}

type RegMap struct {
	regs map[string]*Register
}

type regMapFile struct {
	Registers []*Register `json:"registers"`
}

// NewRegMap checks that paths are unique and areas do not overlap
func NewRegMap(regs []*Register) (*RegMap, error) {
	m := &RegMap{regs: make(map[string]*Register, len(regs))}
	for _, r := range regs {
		if r.Elements == 0 {
			return nil, fmt.Errorf("Register %s has no elements", r.Path)
		}
		if _, ok := m.regs[r.Path]; ok {
			return nil, fmt.Errorf("Duplicate register %s", r.Path)
		}
		m.regs[r.Path] = r
	}
	all := m.All()
	for i := 1; i < len(all); i++ {
		prev := all[i-1]
		if prev.Addr+prev.Words() > all[i].Addr {
			return nil, fmt.Errorf("Register %s overlaps %s", all[i].Path, prev.Path)
		}
	}
	return m, nil
}

// DefaultRegMap ...
func DefaultRegMap() *RegMap {
	m, err := NewRegMap(DefaultRegisters)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadRegMap reads a YAML register map file
func LoadRegMap(path string) (*RegMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := &regMapFile{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("Can not parse register map %s: %w", path, err)
	}
	return NewRegMap(f.Registers)
}

// Get ...
func (m *RegMap) Get(path string) (*Register, error) {
	r, ok := m.regs[path]
	if !ok {
		return nil, ErrRegisterNotFound{Path: path}
	}
	return r, nil
}

// All returns the registers sorted by address
func (m *RegMap) All() []*Register {
	result := make([]*Register, 0, len(m.regs))
	for _, r := range m.regs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Addr < result[j].Addr
	})
	return result
}
