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

package srv

import (
	"context"
	"io"
	"net"

	"github.com/google/gopacket"
)

type InPacket struct {
	Data []byte
	gopacket.CaptureInfo
}

type OutPacket struct {
	Data []byte
	net.Addr
}

// GetAddr returns the address of the peer that sent the packet
func GetAddr(packet gopacket.Packet) (net.Addr, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		addr, ok := meta.CaptureInfo.AncillaryData[0].(net.Addr)
		if !ok {
			return nil, ErrGetAddr{}
		}
		return addr, nil
	}
	return nil, ErrGetAddr{}
}

// Server moves UDP packets between the wire and the packet handlers
type Server struct {
	context.Context
	ChIn  chan InPacket
	ChOut chan OutPacket
}

// ReadPacketData reads ChIn channel and returns packet data and metadata.
// This method is from PacketDataSource interface.
func (s *Server) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case p, ok := <-s.ChIn:
		if !ok {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		return p.Data, p.CaptureInfo, nil
	case <-s.Context.Done():
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
}
