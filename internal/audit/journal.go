// Package audit keeps an append-only journal of submitted ledger
// operations. Entries carry public identifiers only: transaction ids,
// account and token ids, public keys. The journal is operational
// history, not a system of record; the ledger stays the source of
// truth.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mintgate-io/mintgate/internal/ledger"
	klog "github.com/mintgate-io/mintgate/internal/log"
	"github.com/mintgate-io/mintgate/internal/storage"
)

var keyPrefix = []byte("audit/")

// Entry is one journaled operation.
type Entry struct {
	Seq    uint64            `json:"seq"`
	Time   time.Time         `json:"time"`
	Op     string            `json:"op"`
	TxID   string            `json:"tx_id,omitempty"`
	Status string            `json:"status"`
	Refs   map[string]string `json:"refs,omitempty"` // public ids only
}

// Journal appends entries to a key-value store. Keys are big-endian
// sequence numbers so store iteration yields journal order.
type Journal struct {
	mu      sync.Mutex
	db      storage.DB
	nextSeq uint64
}

// New opens a journal over db, resuming the sequence after the last
// stored entry.
func New(db storage.DB) (*Journal, error) {
	j := &Journal{db: db, nextSeq: 1}
	err := db.ForEach(keyPrefix, func(key, value []byte) error {
		if len(key) == len(keyPrefix)+8 {
			seq := binary.BigEndian.Uint64(key[len(keyPrefix):])
			if seq >= j.nextSeq {
				j.nextSeq = seq + 1
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return j, nil
}

// Record appends one entry. Seq and Time are assigned here. A nil
// journal discards the entry, so components need no journal check.
func (j *Journal) Record(e Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	e.Seq = j.nextSeq
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], e.Seq)

	if err := j.db.Put(key, data); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	j.nextSeq++

	klog.Audit.Debug().
		Uint64("seq", e.Seq).
		Str("op", e.Op).
		Str("status", e.Status).
		Msg("journaled")
	return nil
}

// StatusOf picks the journaled status for a submission outcome: the
// receipt status when one exists, a generic error marker otherwise.
func StatusOf(receipt *ledger.Receipt, err error) string {
	if receipt != nil {
		return receipt.Status
	}
	if err != nil {
		return "ERROR"
	}
	return ledger.StatusSuccess
}

// Entries returns all journal entries in sequence order.
func (j *Journal) Entries() ([]Entry, error) {
	var entries []Entry
	err := j.db.ForEach(keyPrefix, func(key, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("parse entry %x: %w", key, err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
