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

	"jinr.ru/greenlab/go-qldet/pkg/log"
)

const (
	MLinkHostAddr   = 1
	MLinkDeviceAddr = 0xfefe
)

func init() {
	initUnknownMLinkTypes()
	initActualMLinkTypes()
}

const (
	// MLinkLayerNum identifies the layer
	MLinkLayerNum = 1999
	// MLinkSync is a magic number that appears in the beginning of each MLink frame
	MLinkSync = 0x2A50
	// MLinkHeaderSize is the size of MLink header in bytes
	MLinkHeaderSize = 12
	// MLinkMaxFrameSize is the max size of MLink frame including MLink header and CRC
	MLinkMaxFrameSize = 1400
	// MLinkMaxPayloadSize is the max size of Mlink frame payload
	// MLink header 12 bytes
	// MLink CRC 4 bytes
	MLinkMaxPayloadSize = MLinkMaxFrameSize - MLinkHeaderSize - 4
)

type MLinkType uint16

const (
	MLinkTypeMemRequest  MLinkType = 0x0105
	MLinkTypeMemResponse MLinkType = 0x0106
	// MLinkTypeMemNack is sent back instead of a response when a request fails
	MLinkTypeMemNack MLinkType = 0x0107
)

type errorDecoderForMLinkType int

func (e *errorDecoderForMLinkType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return e
}

func (e *errorDecoderForMLinkType) Error() string {
	return fmt.Sprintf("Unable to decode MLink type 0x%04x", int(*e))
}

var errorDecodersForMLinkType [65536]errorDecoderForMLinkType
var MLinkMetadata [65536]layers.EnumMetadata

func initUnknownMLinkTypes() {
	for i := 0; i < 65536; i++ {
		errorDecodersForMLinkType[i] = errorDecoderForMLinkType(i)
		MLinkMetadata[i] = layers.EnumMetadata{
			DecodeWith: &errorDecodersForMLinkType[i],
			Name:       "UnknownMLinkType",
		}
	}
}

func initActualMLinkTypes() {
	MLinkMetadata[MLinkTypeMemRequest] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeMemLayer), Name: "MemRequest", LayerType: MemLayerType}
	MLinkMetadata[MLinkTypeMemResponse] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeMemLayer), Name: "MemResponse", LayerType: MemLayerType}
	MLinkMetadata[MLinkTypeMemNack] = layers.EnumMetadata{DecodeWith: gopacket.DecodeFunc(DecodeMemLayer), Name: "MemNack", LayerType: MemLayerType}
}

// LayerType returns MLinkMetadata.LayerType
func (t MLinkType) LayerType() gopacket.LayerType {
	return MLinkMetadata[t].LayerType
}

// Decode calls MLinkMetadata.DecodeWith's decoder
func (t MLinkType) Decode(data []byte, p gopacket.PacketBuilder) error {
	return MLinkMetadata[t].DecodeWith.Decode(data, p)
}

// String returns MLinkMetadata.Name
func (t MLinkType) String() string {
	return MLinkMetadata[t].Name
}

type MLinkHeader struct {
	Type MLinkType
	Sync uint16
	Seq  uint16
	Len  uint16 // length of MLink frame including header, payload and CRC in 4-byte words NOT in bytes
	Src  uint16
	Dst  uint16
}

type MLinkLayer struct {
	layers.BaseLayer
	MLinkHeader
	Crc uint32
}

var MLinkLayerType = gopacket.RegisterLayerType(MLinkLayerNum,
	gopacket.LayerTypeMetadata{Name: "MLinkLayerType", Decoder: gopacket.DecodeFunc(decodeMLinkLayer)})

func (ml *MLinkLayer) LayerType() gopacket.LayerType {
	return MLinkLayerType
}

// SerializeHeader serializes only MLink header (not tail) to a buffer
// The CRC tail depends on the whole frame so it is calculated by the caller
// using the serialized header and payload.
func (ml *MLinkLayer) SerializeHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(ml.Type))
	binary.LittleEndian.PutUint16(buf[2:4], ml.Sync)
	binary.LittleEndian.PutUint16(buf[4:6], ml.Seq)
	binary.LittleEndian.PutUint16(buf[6:8], ml.Len)
	binary.LittleEndian.PutUint16(buf[8:10], ml.Src)
	binary.LittleEndian.PutUint16(buf[10:12], ml.Dst)
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (ml *MLinkLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	headerBytes, err := b.PrependBytes(MLinkHeaderSize)
	if err != nil {
		return err
	}
	ml.SerializeHeader(headerBytes)

	tailBytes, err := b.AppendBytes(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(tailBytes[0:4], ml.Crc)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a MLink frame
func (ml *MLinkLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < MLinkHeaderSize+4 {
		df.SetTruncated()
		return fmt.Errorf("MLink frame too short: %d bytes", len(data))
	}

	if sync := binary.LittleEndian.Uint16(data[2:4]); sync != MLinkSync {
		log.Debug("Mlink sync is invalid: 0x%04x", sync)
		return fmt.Errorf("Wrong MLink sync. Must be 0x%04x", MLinkSync)
	}

	ml.Type = MLinkType(binary.LittleEndian.Uint16(data[0:2]))
	ml.Sync = binary.LittleEndian.Uint16(data[2:4])
	ml.Seq = binary.LittleEndian.Uint16(data[4:6])
	ml.Len = binary.LittleEndian.Uint16(data[6:8])
	ml.Src = binary.LittleEndian.Uint16(data[8:10])
	ml.Dst = binary.LittleEndian.Uint16(data[10:12])

	size := int(ml.Len) * 4
	if size < MLinkHeaderSize+4 || size > len(data) {
		df.SetTruncated()
		return fmt.Errorf("Wrong MLink length: %d words in %d bytes", ml.Len, len(data))
	}
	// trailing bytes after the frame are padding
	data = data[:size]

	ml.Crc = binary.LittleEndian.Uint32(data[size-4:])
	if crc := crc32.ChecksumIEEE(data[:size-4]); crc != ml.Crc {
		return fmt.Errorf("Wrong MLink CRC: 0x%08x, calculated 0x%08x", ml.Crc, crc)
	}

	ml.BaseLayer = layers.BaseLayer{
		Contents: data[0:MLinkHeaderSize],
		Payload:  data[MLinkHeaderSize : size-4], // data without MLink header and without CRC in the end of each MLink frame
	}
	return nil
}

func (ml *MLinkLayer) NextLayerType() gopacket.LayerType {
	return ml.Type.LayerType()
}

func decodeMLinkLayer(data []byte, p gopacket.PacketBuilder) error {
	ml := &MLinkLayer{}
	err := ml.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding mlink layer: %s", err)
		return err
	}
	p.AddLayer(ml)
	return p.NextDecoder(ml.Type)
}
