// Package ingest runs documents through the parser sentence by sentence and
// stores the extracted entries, resuming where an earlier run stopped.
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/japaniel/duckparse/pkg/db"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/document"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/entity"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/japaniel/duckparse/pkg/project"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Parser is the part of duckparse.Parser the ingester uses.
type Parser interface {
	ParseRaw(ctx context.Context, text string, opts ...duckparse.CallOption) ([]entity.Entry, error)
}

// Ingester parses sentences and saves their entries to the database.
type Ingester struct {
	DB     *sql.DB
	Parser Parser

	// Language, Dimensions and ReferenceTime are passed on every parse call.
	Language      language.Language
	Dimensions    []dimension.Dimension
	ReferenceTime *time.Time

	BatchSize int
	Workers   int
	Logger    *slog.Logger
	// OnProgress is called periodically with the number of processed sentences and total sentences.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates an Ingester with default batching and concurrency.
func NewIngester(conn *sql.DB, p Parser) *Ingester {
	return &Ingester{
		DB:        conn,
		Parser:    p,
		Language:  language.English,
		BatchSize: 50,
		Workers:   4,
		Logger:    slog.Default(),
	}
}

// parsedSentence is the result of one parse job.
type parsedSentence struct {
	Index   int
	Entries []db.Entry
	Err     error
}

// Ingest parses sentences[i] for every i after the source's checkpoint and
// stores the entries with spans relative to the whole document. It returns
// the number of entries stored by this call.
func (ig *Ingester) Ingest(ctx context.Context, sourceID int64, sentences []document.Sentence) (int, error) {
	logger := ig.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lastProcessed, err := db.GetSourceProgress(ig.DB, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to read progress of source %d: %w", sourceID, err)
	}
	startIdx := lastProcessed + 1
	total := len(sentences)
	if startIdx >= total {
		logger.Info("Source already ingested", "source", sourceID, "sentences", total)
		return 0, nil
	}
	if startIdx > 0 {
		logger.Info("Resuming ingestion", "source", sourceID, "from_sentence", startIdx)
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(ig.Workers, ig.Workers*2)
	} else {
		wp = NewWorkerPool(ig.Workers, ig.Workers*2)
	}
	results := make(chan parsedSentence, ig.Workers*2)
	resultsClosed := false
	done := make(chan error, 1)

	var stored atomic.Int64

	bw := NewBatchWriter(ig.DB, ig.BatchSize, 100*time.Millisecond)
	var batchErr error
	var batchErrMu sync.Mutex
	bw.OnError = func(e error) {
		batchErrMu.Lock()
		if batchErr == nil {
			batchErr = e
		}
		batchErrMu.Unlock()
	}

	defer func() {
		wp.Close()
		if !resultsClosed {
			close(results)
		}
		_ = bw.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// The consumer writes sentences in order, holding back results that
	// arrive before their predecessors.
	go func() {
		defer close(done)
		held := make(map[int]parsedSentence)
		next := startIdx
		for res := range results {
			if res.Err != nil {
				cancel()
				done <- res.Err
				return
			}
			held[res.Index] = res
			for {
				item, ok := held[next]
				if !ok {
					break
				}
				delete(held, next)
				if err := bw.Submit(ig.write(sourceID, item, &stored)); err != nil {
					cancel()
					done <- err
					return
				}
				next++
				if ig.OnProgress != nil && ig.BatchSize > 0 && next%ig.BatchSize == 0 {
					ig.OnProgress(next, total)
				}
			}
		}
		if err := ctx.Err(); err != nil && next < total {
			done <- err
			return
		}
		if ig.OnProgress != nil {
			ig.OnProgress(total, total)
		}
		done <- nil
	}()

	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		idx, sentence := i, sentences[i]
		job := func(ctx context.Context) error {
			res := ig.parseSentence(ctx, idx, sentence)
			select {
			case results <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			switch {
			case errors.Is(err, ctx.Err()), errors.Is(err, ErrPoolClosed):
			default:
				submitErr = err
				cancel()
			}
			break Loop
		}
	}

	// Once the pool has drained no job can send, so the consumer sees the end
	// of the results.
	wp.Close()
	close(results)
	resultsClosed = true

	consumerErr := <-done
	if submitErr != nil {
		consumerErr = submitErr
	}
	if err := bw.Close(); err != nil && consumerErr == nil {
		consumerErr = err
	}
	batchErrMu.Lock()
	if batchErr != nil && consumerErr == nil {
		consumerErr = batchErr
	}
	batchErrMu.Unlock()

	if consumerErr == nil {
		logger.Info("Ingestion complete", "source", sourceID, "sentences", total-startIdx, "entries", stored.Load())
	}
	return int(stored.Load()), consumerErr
}

// write stores the entries of one sentence and moves the checkpoint past it
// in the same transaction.
func (ig *Ingester) write(sourceID int64, item parsedSentence, stored *atomic.Int64) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, e := range item.Entries {
			e.SourceID = sourceID
			if _, err := db.InsertEntry(tx, e); err != nil {
				return fmt.Errorf("sentence %d: %w", item.Index, err)
			}
		}
		if err := db.UpdateSourceProgress(tx, sourceID, item.Index); err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		stored.Add(int64(len(item.Entries)))
		return nil
	}
}

func (ig *Ingester) parseSentence(ctx context.Context, index int, s document.Sentence) parsedSentence {
	opts := []duckparse.CallOption{duckparse.Language(ig.Language)}
	if len(ig.Dimensions) > 0 {
		opts = append(opts, duckparse.WithDimensions(ig.Dimensions...))
	}
	if ig.ReferenceTime != nil {
		opts = append(opts, duckparse.WithReferenceTime(*ig.ReferenceTime))
	}

	entries, err := ig.Parser.ParseRaw(ctx, s.Text, opts...)
	if err != nil {
		return parsedSentence{Index: index, Err: fmt.Errorf("sentence %d: %w", index, err)}
	}
	rows := make([]db.Entry, 0, len(entries))
	for _, e := range entries {
		row, err := toRow(index, s.Offset, e)
		if err != nil {
			return parsedSentence{Index: index, Err: fmt.Errorf("sentence %d: %w", index, err)}
		}
		rows = append(rows, row)
	}
	return parsedSentence{Index: index, Entries: rows}
}

func toRow(index, offset int, e entity.Entry) (db.Entry, error) {
	e.Span = e.Span.Shift(offset)
	p, err := project.Project(e)
	if err != nil {
		return db.Entry{}, err
	}
	value, err := json.Marshal(e.Value)
	if err != nil {
		return db.Entry{}, err
	}
	projected, err := json.Marshal(p.Value)
	if err != nil {
		return db.Entry{}, err
	}
	return db.Entry{
		SentenceIndex: index,
		Dim:           string(e.Dimension),
		Body:          e.Text,
		Start:         e.Span.Start,
		End:           e.Span.End,
		Latent:        e.Latent,
		Value:         string(value),
		Projected:     string(projected),
	}, nil
}
