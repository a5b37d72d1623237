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

package layers

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// MemLayerNum identifies the layer
	MemLayerNum = 1996
	// MemMaxAddr is the highest word address a Mem header can carry (22 bits)
	MemMaxAddr = 0x3fffff
	// MemMaxSize is the max number of words in one Mem operation, it keeps
	// the MLink frame below MLinkMaxFrameSize
	MemMaxSize = 256
)

// MemOp is one memory read or write. A read request carries no data,
// its response carries Size words. A write request carries Size words,
// its response carries none.
type MemOp struct {
	Read bool
	Addr uint32 // 22 bits
	Size uint32 // 9 bits
	Data []uint32
}

type MemLayer struct {
	layers.BaseLayer
	*MemOp
}

var MemLayerType = gopacket.RegisterLayerType(MemLayerNum,
	gopacket.LayerTypeMetadata{Name: "MemLayerType", Decoder: gopacket.DecodeFunc(DecodeMemLayer)})

// LayerType returns the type of the Mem layer in the layer catalog
func (mem *MemLayer) LayerType() gopacket.LayerType {
	return MemLayerType
}

// Len is the size of the serialized layer in bytes
func (mem *MemLayer) Len() int {
	return (1 + len(mem.Data)) * 4
}

// Serialize serializes the Mem header and data to a buffer of Len bytes.
// MLink CRC depends on these bytes so they are serialized before the MLink tail.
func (mem *MemLayer) Serialize(buf []byte) {
	hdr := ((mem.Size & 0x1ff) << 22) | (mem.Addr & MemMaxAddr)
	if mem.Read {
		hdr |= 0x80000000
	}
	binary.LittleEndian.PutUint32(buf[0:4], hdr)
	for i, word := range mem.Data {
		offset := (i + 1) * 4
		binary.LittleEndian.PutUint32(buf[offset:offset+4], word)
	}
}

// SerializeTo serializes the memory request layer into bytes and writes the bytes to the SerializeBuffer
func (mem *MemLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(mem.Len())
	if err != nil {
		return err
	}
	mem.Serialize(bytes)
	return nil
}

func (mem *MemLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 4 || len(data)%4 != 0 {
		df.SetTruncated()
		return fmt.Errorf("Wrong Mem payload size: %d bytes", len(data))
	}
	mem.BaseLayer = layers.BaseLayer{
		Contents: data,
		Payload:  []byte{},
	}
	mem.MemOp = &MemOp{}
	hdr := binary.LittleEndian.Uint32(data[0:4])
	mem.Read = hdr&0x80000000 != 0
	mem.Addr = hdr & MemMaxAddr
	mem.Size = (hdr >> 22) & 0x1ff
	words := uint32(len(data)/4 - 1)
	if words != 0 && words != mem.Size {
		return fmt.Errorf("Mem payload has %d words, header says %d", words, mem.Size)
	}
	for i := uint32(0); i < words; i++ {
		offset := (i + 1) * 4
		mem.Data = append(mem.Data, binary.LittleEndian.Uint32(data[offset:offset+4]))
	}
	return nil
}

func DecodeMemLayer(data []byte, p gopacket.PacketBuilder) error {
	mem := &MemLayer{}
	err := mem.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(mem)
	return nil
}

// MemOpToBytes builds a complete MLink frame carrying the memory operation
func MemOpToBytes(t MLinkType, op *MemOp, seq uint16) ([]byte, error) {
	if op.Addr > MemMaxAddr || op.Size > MemMaxSize {
		return nil, fmt.Errorf("Mem operation out of range: addr=0x%x size=%d", op.Addr, op.Size)
	}
	mem := &MemLayer{MemOp: op}

	ml := &MLinkLayer{}
	ml.Type = t
	ml.Sync = MLinkSync
	// 3 words for MLink header + 1 word CRC + 1 word Mem header + N words Mem data
	ml.Len = uint16(4 + 1 + len(op.Data))
	ml.Seq = seq
	if t == MLinkTypeMemRequest {
		ml.Src = MLinkHostAddr
		ml.Dst = MLinkDeviceAddr
	} else {
		ml.Src = MLinkDeviceAddr
		ml.Dst = MLinkHostAddr
	}

	// Calculate crc32 checksum
	mlHeaderBytes := make([]byte, MLinkHeaderSize)
	ml.SerializeHeader(mlHeaderBytes)
	memBytes := make([]byte, mem.Len())
	mem.Serialize(memBytes)
	ml.Crc = crc32.ChecksumIEEE(append(mlHeaderBytes, memBytes...))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	err := gopacket.SerializeLayers(buf, opts, ml, mem)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMemFrame decodes an MLink frame carrying a memory operation
func DecodeMemFrame(data []byte) (*MLinkLayer, *MemLayer, error) {
	packet := gopacket.NewPacket(data, MLinkLayerType, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, nil, errLayer.Error()
	}
	mlLayer := packet.Layer(MLinkLayerType)
	memLayer := packet.Layer(MemLayerType)
	if mlLayer == nil || memLayer == nil {
		return nil, nil, fmt.Errorf("Not a memory frame")
	}
	return mlLayer.(*MLinkLayer), memLayer.(*MemLayer), nil
}
