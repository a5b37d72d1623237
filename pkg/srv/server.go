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
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
	"jinr.ru/greenlab/go-qldet/pkg/device/dummy"
	"jinr.ru/greenlab/go-qldet/pkg/layers"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

const (
	shutdownTimeout = 5 * time.Second
)

// RegServer serves the register store of one device over HTTP and MLink/UDP
type RegServer struct {
	Server
	cfg   *config.ServerConfig
	store *dummy.Store
	regs  *device.RegMap
}

// NewRegServer opens the register store. The server owns the store
// and closes it when Run returns.
func NewRegServer(ctx context.Context, cfg *config.ServerConfig, timeout time.Duration) (*RegServer, error) {
	log.Debug("Opening register store %s for device %s", cfg.DBPath, cfg.Alias)
	store, err := dummy.Open(cfg.DBPath, cfg.Alias, timeout)
	if err != nil {
		return nil, err
	}
	return NewRegServerWithStore(ctx, cfg, store), nil
}

// NewRegServerWithStore ...
func NewRegServerWithStore(ctx context.Context, cfg *config.ServerConfig, store *dummy.Store) *RegServer {
	return &RegServer{
		Server: Server{
			Context: ctx,
			ChIn:    make(chan InPacket),
			ChOut:   make(chan OutPacket),
		},
		cfg:   cfg,
		store: store,
		regs:  device.DefaultRegMap(),
	}
}

// Alias ...
func (s *RegServer) Alias() string {
	return s.store.Alias
}

// HandleMemFrame executes one memory request frame and returns the response frame.
// A request the store can not execute is answered with a Nack frame.
func (s *RegServer) HandleMemFrame(data []byte) ([]byte, error) {
	ml, mem, err := layers.DecodeMemFrame(data)
	if err != nil {
		return nil, err
	}
	if ml.Type != layers.MLinkTypeMemRequest {
		return nil, ErrUnexpectedFrame{What: ml.Type.String()}
	}
	log.Debug("Handling mem request: seq=%d read=%t addr=0x%06x size=%d", ml.Seq, mem.Read, mem.Addr, mem.Size)

	resp := &layers.MemOp{Read: mem.Read, Addr: mem.Addr, Size: mem.Size}
	if mem.Read {
		resp.Data, err = s.store.ReadArea(mem.Addr, mem.Size)
	} else if uint32(len(mem.Data)) != mem.Size {
		err = fmt.Errorf("Write request without data")
	} else {
		err = s.store.WriteArea(mem.Addr, mem.Data)
	}
	if err != nil {
		log.Warning("Mem request failed: %s", err)
		return layers.MemOpToBytes(layers.MLinkTypeMemNack, &layers.MemOp{Read: mem.Read, Addr: mem.Addr, Size: mem.Size}, ml.Seq)
	}
	return layers.MemOpToBytes(layers.MLinkTypeMemResponse, resp, ml.Seq)
}

// ServeUDP answers memory requests received on conn until the context is
// cancelled or the connection fails. It closes conn before returning.
func (s *RegServer) ServeUDP(conn net.PacketConn) error {
	errChan := make(chan error, 2)
	buffer := make([]byte, 65536)

	go func() {
		<-s.Context.Done()
		conn.Close()
	}()

	// Read UDP packets from wire and put them to input queue
	go func() {
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			// the buffer is reused for the next packet
			data := make([]byte, length)
			copy(data, buffer[:length])
			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{addr},
			}
			select {
			case s.ChIn <- InPacket{Data: data, CaptureInfo: captureInfo}:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Read captured packets from input queue, execute them and queue the responses
	go func() {
		source := gopacket.NewPacketSource(s, layers.MLinkLayerType)
		// frames are decoded by HandleMemFrame
		source.Lazy = true
		source.NoCopy = true
		for packet := range source.Packets() {
			addr, packetErr := GetAddr(packet)
			if packetErr != nil {
				log.Error(packetErr.Error())
				continue
			}
			resp, packetErr := s.HandleMemFrame(packet.Data())
			if packetErr != nil {
				log.Debug("Drop packet from %s: %s", addr, packetErr)
				continue
			}
			select {
			case s.ChOut <- OutPacket{Data: resp, Addr: addr}:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Read packets from output queue and send them to wire
	go func() {
		for {
			select {
			case outPacket := <-s.ChOut:
				if _, sendErr := conn.WriteTo(outPacket.Data, outPacket.Addr); sendErr != nil {
					log.Error("Error while sending data to %s", outPacket.Addr)
					errChan <- sendErr
					return
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		if s.Context.Err() != nil {
			return s.Context.Err()
		}
		return err
	}
}

// Run serves the HTTP API and the MLink endpoint until the context is cancelled
func (s *RegServer) Run() error {
	defer s.store.Close()

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.RegPort))
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", uaddr)
	if err != nil {
		return err
	}
	log.Info("Serving MLink register requests for %s on %s", s.Alias(), conn.LocalAddr())

	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Address, s.cfg.ApiPort),
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting API server: address: %s port: %d", s.cfg.Address, s.cfg.ApiPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	go func() {
		errChan <- s.ServeUDP(conn)
	}()

	select {
	case <-s.Context.Done():
		err = s.Context.Err()
	case err = <-errChan:
	}
	log.Info("Stopping register server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	httpServer.Shutdown(ctx)
	conn.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
