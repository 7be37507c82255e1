// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package history persists a durable audit log of every submission this
// miner has made, independent of the in-memory template lifecycle. It
// answers "what did we submit, and when" across restarts.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var submissionsBucket = []byte("submissions")

// Entry is one recorded submission attempt.
type Entry struct {
	Height    uint32 `json:"height"`
	Channel   uint8  `json:"channel"`
	Nonce     uint64 `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
	Result    string `json:"result"` // "PENDING", "ACCEPT", "REJECT"
}

// Store wraps a bbolt database holding the submission audit log.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(submissionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record appends e to the submission log, keyed by an auto-incrementing
// sequence so insertion order is preserved on iteration.
func (s *Store) Record(e Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(submissionsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		return b.Put(itob(seq), data)
	})
}

// UpdateResult rewrites the most recent entry matching height+nonce with
// the node's eventual ACCEPT/REJECT verdict.
func (s *Store) UpdateResult(height uint32, nonce uint64, result string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(submissionsBucket)
		c := b.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			if e.Height == height && e.Nonce == nonce {
				e.Result = result
				data, err := json.Marshal(e)
				if err != nil {
					return err
				}
				return b.Put(k, data)
			}
		}
		return nil
	})
}

// Recent returns up to n most-recently-recorded entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(submissionsBucket)
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
