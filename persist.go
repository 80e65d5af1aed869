package chronographer

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// PersistedRecord is the durable subset of a StoredEntry: everything
// needed to rebuild scheduling state on restart except the frame tree
// itself, which the application must rebuild on its own since closures
// cannot be serialized.
type PersistedRecord struct {
	ID         string    `json:"id"`
	DueAt      time.Time `json:"due_at"`
	Priority   int       `json:"priority"`
	DebugLabel string    `json:"debug_label"`
	MaxRuns    int       `json:"max_runs"`
	RunsSoFar  int64     `json:"runs_so_far"`
}

// PersistenceCollaborator durably records pending task state so a
// restarted engine can rebuild its TaskStore without losing schedule
// continuity. Implementations must tolerate Save being called far more
// often than Load.
type PersistenceCollaborator interface {
	Save(record PersistedRecord) error
	Delete(id TaskIdentifier) error
	LoadAll() ([]PersistedRecord, error)
	Close() error
}

// NoopPersistence discards everything; the default when durability isn't
// configured.
type NoopPersistence struct{}

func (NoopPersistence) Save(PersistedRecord) error        { return nil }
func (NoopPersistence) Delete(TaskIdentifier) error        { return nil }
func (NoopPersistence) LoadAll() ([]PersistedRecord, error) { return nil, nil }
func (NoopPersistence) Close() error                        { return nil }

var tasksBucket = []byte("tasks")

// BoltPersistence stores PersistedRecords in a bbolt database, one key
// per task identifier, the same embedded-KV approach the teacher's
// WorkflowStore uses for workflow/execution durability. A circuit breaker
// guards every call: once bbolt starts failing (disk full, corrupted
// file) writes short-circuit immediately instead of piling up blocked
// goroutines behind a failing disk.
type BoltPersistence struct {
	db      *bbolt.DB
	breaker *breaker
}

func NewBoltPersistence(path string) (*BoltPersistence, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("chronographer: open bolt db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tasksBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("chronographer: init bucket: %w", err)
	}
	return &BoltPersistence{db: db, breaker: newBreaker(5, 0.5, 30*time.Second)}, nil
}

func (p *BoltPersistence) Save(record PersistedRecord) error {
	return p.breaker.run(func() error {
		buf, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return p.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(tasksBucket).Put([]byte(record.ID), buf)
		})
	})
}

func (p *BoltPersistence) Delete(id TaskIdentifier) error {
	return p.breaker.run(func() error {
		return p.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(tasksBucket).Delete([]byte(id.String()))
		})
	})
}

func (p *BoltPersistence) LoadAll() ([]PersistedRecord, error) {
	var records []PersistedRecord
	err := p.breaker.run(func() error {
		return p.db.View(func(tx *bbolt.Tx) error {
			return tx.Bucket(tasksBucket).ForEach(func(_, v []byte) error {
				var rec PersistedRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
		})
	})
	return records, err
}

func (p *BoltPersistence) Close() error {
	return p.db.Close()
}
