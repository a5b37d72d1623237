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

package ifc

// Backend moves raw 32-bit words to and from a register address space.
// Addresses and sizes are counted in words.
type Backend interface {
	ReadArea(addr uint32, size uint32) ([]uint32, error)
	WriteArea(addr uint32, data []uint32) error
	Close() error
}

// Device gives access to registers by their logical path, e.g. /LLRF_QLDET/WORD_K
type Device interface {
	ReadScalar(path string) (int32, error)
	WriteScalar(path string, value int32) error

	ReadVector(path string) ([]int32, error)
	WriteVector(path string, values []int32) error

	// ReadMatrix returns a 2-D register indexed [channel][sample]
	ReadMatrix(path string) ([][]int32, error)
	WriteMatrix(path string, values [][]int32) error

	Close() error
}

// MemArea is the JSON body of the register API memory requests
type MemArea struct {
	Addr uint32   `json:"addr"`
	Data []uint32 `json:"data"`
}

// RegHex ...
type RegHex struct {
	Addr  string // hexadecimal
	Value string // hexadecimal
}
