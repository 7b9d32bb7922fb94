package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WriteFunc performs database writes inside the batch transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter groups writes and commits each group in a single transaction.
// A batch is committed when it reaches its size or, if an interval is set,
// when the interval elapses.
type BatchWriter struct {
	db     *sql.DB
	size   int
	logger *slog.Logger

	mu      sync.Mutex
	pending []WriteFunc
	closed  bool

	batches  chan []WriteFunc
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// OnError is called for every failed batch.
	OnError func(error)

	errMu    sync.Mutex
	firstErr error
}

// NewBatchWriter starts a writer. A nil db runs the writes with a nil
// transaction, which tests use to observe batching.
func NewBatchWriter(db *sql.DB, size int, interval time.Duration) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	bw := &BatchWriter{
		db:      db,
		size:    size,
		logger:  slog.Default(),
		pending: make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		stop:    make(chan struct{}),
	}
	bw.wg.Add(1)
	go bw.commitLoop()
	if interval > 0 {
		bw.wg.Add(1)
		go bw.tickLoop(interval)
	}
	return bw
}

// Submit queues w. It blocks while two full batches are already waiting
// to be committed.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.pending = append(bw.pending, w)
	if len(bw.pending) >= bw.size {
		bw.handOff()
	}
	return nil
}

// handOff passes the pending writes to the committer. bw.mu must be held.
func (bw *BatchWriter) handOff() {
	if len(bw.pending) == 0 {
		return
	}
	batch := bw.pending
	bw.pending = make([]WriteFunc, 0, bw.size)
	select {
	case bw.batches <- batch:
	case <-bw.stop:
		bw.fail(fmt.Errorf("batch writer: dropping batch of %d writes after shutdown", len(batch)))
	}
}

// shutdown stops the ticker and makes further hand-offs drop their batch.
func (bw *BatchWriter) shutdown() {
	bw.stopOnce.Do(func() { close(bw.stop) })
}

func (bw *BatchWriter) fail(err error) {
	bw.errMu.Lock()
	if bw.firstErr == nil {
		bw.firstErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if err := bw.commit(batch); err != nil {
			bw.logger.Error("Batch commit failed", "writes", len(batch), "error", err)
			bw.fail(err)
			continue
		}
		bw.logger.Debug("Batch committed", "writes", len(batch))
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Commits run on a background context so Close can flush after the
	// caller's context is gone.
	ctx := context.Background()
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d writes): %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) tickLoop(interval time.Duration) {
	defer bw.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-bw.stop:
			return
		case <-ticker.C:
			bw.mu.Lock()
			bw.handOff()
			bw.mu.Unlock()
		}
	}
}

// Close commits what is pending, waits for the committer and returns the
// first error any batch hit.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	bw.handOff()
	bw.mu.Unlock()

	bw.shutdown()
	close(bw.batches)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}

// ErrBatchWriterClosed is returned by Submit and Close after Close.
var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

// BatchWriterError is the error type of batch writer operations.
type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
