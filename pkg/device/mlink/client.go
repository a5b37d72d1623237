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

package mlink

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/layers"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

const (
	DefaultTimeout = 2 * time.Second
)

// ErrNack returned when the device answers a request with a Nack frame
type ErrNack struct {
	Addr uint32
	Size uint32
}

func (e ErrNack) Error() string {
	return fmt.Sprintf("Memory request rejected by device: addr=0x%06x size=%d", e.Addr, e.Size)
}

// Client talks the MLink memory protocol to one device over UDP.
// Requests are sent one at a time, every response is matched by sequence number.
type Client struct {
	conn    *net.UDPConn
	timeout time.Duration
	seq     uint16
	mu      sync.Mutex
	buffer  []byte
}

var _ deviceifc.Backend = &Client{}

// Dial ...
func Dial(address string, timeout time.Duration) (*Client, error) {
	uaddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	log.Debug("Connecting to MLink device: %s", uaddr)
	conn, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		conn:    conn,
		timeout: timeout,
		buffer:  make([]byte, 65536),
	}, nil
}

func (c *Client) nextSeq() uint16 {
	seq := c.seq
	c.seq++
	return seq
}

// transact sends one request and waits for the response with the same sequence number
func (c *Client) transact(op *layers.MemOp) (*layers.MemLayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.nextSeq()
	data, err := layers.MemOpToBytes(layers.MLinkTypeMemRequest, op, seq)
	if err != nil {
		return nil, err
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, err
	}
	for {
		length, err := c.conn.Read(c.buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, fmt.Errorf("No response for seq %d within %s: %w", seq, c.timeout, err)
			}
			return nil, err
		}
		ml, mem, err := layers.DecodeMemFrame(c.buffer[:length])
		if err != nil {
			log.Debug("Drop frame: %s", err)
			continue
		}
		if ml.Seq != seq {
			log.Debug("Drop stale frame: seq %d, expected %d", ml.Seq, seq)
			continue
		}
		switch ml.Type {
		case layers.MLinkTypeMemNack:
			return nil, ErrNack{Addr: op.Addr, Size: op.Size}
		case layers.MLinkTypeMemResponse:
			if mem.Addr != op.Addr || mem.Read != op.Read {
				return nil, fmt.Errorf("Response does not match request: addr=0x%06x, expected 0x%06x", mem.Addr, op.Addr)
			}
			return mem, nil
		default:
			log.Debug("Drop frame of type %s", ml.Type)
		}
	}
}

// ReadArea reads the area in chunks of at most layers.MemMaxSize words
func (c *Client) ReadArea(addr uint32, size uint32) ([]uint32, error) {
	result := make([]uint32, 0, size)
	for offset := uint32(0); offset < size; offset += layers.MemMaxSize {
		n := size - offset
		if n > layers.MemMaxSize {
			n = layers.MemMaxSize
		}
		mem, err := c.transact(&layers.MemOp{Read: true, Addr: addr + offset, Size: n})
		if err != nil {
			return nil, err
		}
		if uint32(len(mem.Data)) != n {
			return nil, fmt.Errorf("Got %d words at 0x%06x, expected %d", len(mem.Data), addr+offset, n)
		}
		result = append(result, mem.Data...)
	}
	return result, nil
}

// WriteArea writes the area in chunks of at most layers.MemMaxSize words
func (c *Client) WriteArea(addr uint32, data []uint32) error {
	for offset := 0; offset < len(data); offset += layers.MemMaxSize {
		end := offset + layers.MemMaxSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		_, err := c.transact(&layers.MemOp{Addr: addr + uint32(offset), Size: uint32(len(chunk)), Data: chunk})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close ...
func (c *Client) Close() error {
	return c.conn.Close()
}
