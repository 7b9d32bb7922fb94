package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// failingPool always returns an error on Submit to simulate producer error.
type failingPool struct{}

func (f *failingPool) Start(ctx context.Context) {}
func (f *failingPool) Submit(job Job) error      { return errors.New("submit failed") }
func (f *failingPool) SubmitCtx(ctx context.Context, job Job) error {
	return errors.New("submit failed")
}
func (f *failingPool) Close() {}

func TestIngestHandlesSubmitError(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()
	sourceID := createSource(t, conn, "http://submit")

	ingester := NewIngester(conn, &numberParser{})
	// Inject failing pool so first Submit() returns an error
	ingester.PoolFactory = func(workers, queue int) WorkerPoolInterface { return &failingPool{} }

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ingester.Ingest(ctx, sourceID, sentences("a", "b", "c"))
	if err == nil || err.Error() != "submit failed" {
		t.Fatalf("expected submit error, got %v", err)
	}
}
