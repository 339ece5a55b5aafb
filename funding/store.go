package funding

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/coreos/bbolt"
)

// journalBucket holds one entry per in-flight funding command, keyed
// by the command's monotonically increasing sequence id, so a crash
// mid-cleanup can be resumed on restart without double-canceling a
// destination or leaking a wallet reservation.
var journalBucket = []byte("funding-cleanup-journal")

// Store is the at-most-once cleanup journal, grounded on the same
// bucket-plus-sequence idiom the payment store uses to hand out unique
// payment ids.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (creating if necessary) the cleanup journal bucket in
// db.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// journalEntry is the persisted snapshot of a Command needed to redo
// cleanup after a crash: which destinations were Started (and so need
// canceling) and the reserved txid (if any) to discard.
type journalEntry struct {
	Txid              string   `json:"txid,omitempty"`
	StartedDestations []string `json:"started_destinations,omitempty"`
}

// Record persists the current cleanup-relevant state of cmd under id,
// overwriting any earlier record for the same id. Called once cleanup
// is about to run so a crash between here and cleanup's completion is
// recoverable.
func (s *Store) Record(id uint64, cmd *Command) error {
	entry := journalEntry{}
	if cmd.Txid != nil {
		entry.Txid = cmd.Txid.String()
	}
	for _, d := range cmd.Destination {
		if d.State == Started {
			entry.StartedDestations = append(entry.StartedDestations, d.ID.String())
		}
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		return bucket.Put(idKey(id), raw)
	})
}

// Clear removes id's journal entry once cleanup has completed
// successfully.
func (s *Store) Clear(id uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		return bucket.Delete(idKey(id))
	})
}

// NextID hands out a fresh, monotonically increasing command id, the
// same way payments.NextSequence hands out invoice ids.
func (s *Store) NextID() (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		return nil
	})
	return id, err
}

// Pending returns every journal entry left over from an interrupted
// cleanup, for a caller to replay against the External backend at
// startup before accepting new commands.
func (s *Store) Pending() (map[uint64]journalEntry, error) {
	pending := make(map[uint64]journalEntry)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		return bucket.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return fmt.Errorf("funding: malformed journal key %x", k)
			}
			var entry journalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			pending[binary.BigEndian.Uint64(k)] = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
