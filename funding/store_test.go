package funding

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/coreos/bbolt"

	"github.com/ZmnSCPxj/routingcore/spark"
)

func openTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := ioutil.TempDir("", "funding-store")
	if err != nil {
		t.Fatalf("TempDir: %v", err)
	}

	db, err := bbolt.Open(tempDir+"/journal.db", 0600, nil)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("bbolt.Open: %v", err)
	}

	store, err := NewStore(db)
	if err != nil {
		db.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("NewStore: %v", err)
	}

	return store, func() {
		db.Close()
		os.RemoveAll(tempDir)
	}
}

func TestStoreNextIDIsMonotonicallyIncreasing(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	first, err := store.NextID()
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	second, err := store.NextID()
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}
}

func TestStoreRecordThenClearRemovesEntry(t *testing.T) {
	store, cleanup := openTestStore(t)
	defer cleanup()

	id, err := store.NextID()
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}

	cmd := &Command{
		Spark:       spark.NewCommand(context.Background()),
		Destination: []*Destination{{ID: vtx(1), State: Started}},
	}
	if err := store.Record(id, cmd); err != nil {
		t.Fatalf("Record: %v", err)
	}

	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	entry, ok := pending[id]
	if !ok {
		t.Fatalf("expected a pending entry for id %d", id)
	}
	if len(entry.StartedDestations) != 1 {
		t.Fatalf("expected one started destination in journal, got %d", len(entry.StartedDestations))
	}

	if err := store.Clear(id); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	pending, err = store.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if _, ok := pending[id]; ok {
		t.Fatalf("expected entry to be cleared")
	}
}
