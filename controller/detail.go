package controller

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"gym-console/api"
)

// Status is where a detail screen is in its load.
type Status int

const (
	Idle Status = iota
	Loading
	NotFound
	Failed
	Ready
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// FetchFunc fetches one record by id.
type FetchFunc[T any] func(ctx context.Context, id int64) (T, error)

// DetailState is a snapshot of a detail screen. Record is meaningful only
// when Status is Ready; Err only when it is Failed.
type DetailState[T any] struct {
	ID     int64
	Status Status
	Record T
	Err    error
}

// Detail shows one record. Loading a new id supersedes any load still in
// flight; its response is discarded.
type Detail[T any] struct {
	fetch FetchFunc[T]
	log   zerolog.Logger

	mu     sync.Mutex
	seq    uint64
	id     int64
	status Status
	record T
	err    error
}

// NewDetail returns an idle detail screen.
func NewDetail[T any](fetch FetchFunc[T], log zerolog.Logger) *Detail[T] {
	return &Detail[T]{fetch: fetch, log: log}
}

// Load fetches id and returns the resulting state.
func (d *Detail[T]) Load(ctx context.Context, id int64) DetailState[T] {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.id = id
	d.status = Loading
	var zero T
	d.record = zero
	d.err = nil
	d.mu.Unlock()

	rec, err := d.fetch(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		d.log.Debug().Int64("id", id).Msg("discarding superseded record")
		return d.stateLocked()
	}
	switch {
	case err == nil:
		d.status, d.record = Ready, rec
	case api.IsNotFound(err):
		d.status = NotFound
	default:
		d.status, d.err = Failed, err
		d.log.Warn().Err(err).Int64("id", id).Msg("record not loaded")
	}
	return d.stateLocked()
}

// Show loads id unless it is already shown or loading.
func (d *Detail[T]) Show(ctx context.Context, id int64) DetailState[T] {
	d.mu.Lock()
	same := d.id == id && (d.status == Ready || d.status == Loading)
	st := d.stateLocked()
	d.mu.Unlock()
	if same {
		return st
	}
	return d.Load(ctx, id)
}

// State returns the current snapshot.
func (d *Detail[T]) State() DetailState[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Detail[T]) stateLocked() DetailState[T] {
	return DetailState[T]{ID: d.id, Status: d.status, Record: d.record, Err: d.err}
}
