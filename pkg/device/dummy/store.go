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

package dummy

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

const (
	BucketNamePrefix = "reg_"
)

// Store keeps the register words of one device in a bbolt database.
// Words that were never written read as zero.
type Store struct {
	DB    *bbolt.DB
	Alias string
}

var _ deviceifc.Backend = &Store{}

// Open opens (or creates) the database file and the bucket of the device.
// The timeout limits waiting for the file lock held by another process.
func Open(path, alias string, timeout time.Duration) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("Can not open register store %s: %w", path, err)
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName(alias)))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		DB:    db,
		Alias: alias,
	}, nil
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func bucketName(alias string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, alias)
}

func (s *Store) bucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(bucketName(s.Alias)))
	if b == nil {
		return nil, fmt.Errorf("Bucket not found: %s", bucketName(s.Alias))
	}
	return b, nil
}

// ReadArea ...
func (s *Store) ReadArea(addr uint32, size uint32) ([]uint32, error) {
	log.Debug("Reading store %s: addr=0x%06x size=%d", s.Alias, addr, size)
	if uint64(addr)+uint64(size) > 1<<32 {
		return nil, fmt.Errorf("Area 0x%x+%d is out of the address space", addr, size)
	}
	data := make([]uint32, size)
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Seek(uint32ToByte(addr)); k != nil; k, v = c.Next() {
			a := binary.BigEndian.Uint32(k)
			if uint64(a) >= uint64(addr)+uint64(size) {
				break
			}
			data[a-addr] = binary.BigEndian.Uint32(v)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteArea ...
func (s *Store) WriteArea(addr uint32, data []uint32) error {
	log.Debug("Writing store %s: addr=0x%06x size=%d", s.Alias, addr, len(data))
	if uint64(addr)+uint64(len(data)) > 1<<32 {
		return fmt.Errorf("Area 0x%x+%d is out of the address space", addr, len(data))
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx)
		if err != nil {
			return err
		}
		for i, value := range data {
			if err := b.Put(uint32ToByte(addr+uint32(i)), uint32ToByte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Dump returns all written words ordered by address
func (s *Store) Dump() ([]*deviceifc.RegHex, error) {
	var regs []*deviceifc.RegHex
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b, err := s.bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			regs = append(regs, &deviceifc.RegHex{
				Addr:  fmt.Sprintf("0x%06x", binary.BigEndian.Uint32(k)),
				Value: fmt.Sprintf("0x%08x", binary.BigEndian.Uint32(v)),
			})
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return regs, nil
}

// Close ...
func (s *Store) Close() error {
	return s.DB.Close()
}
