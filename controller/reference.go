package controller

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"gym-console/service"
)

// ReferencePageSize is how many records a reference list fetches. Records
// beyond the first page are not loaded.
const ReferencePageSize = 100

// ListFunc fetches one page of a resource.
type ListFunc[R any] func(ctx context.Context, q service.Query) (service.Page[R], error)

// ReferenceList is a read-only, single page snapshot of another resource,
// used to turn ids into names in tables and to offer choices in forms.
type ReferenceList[R Record] struct {
	name  string
	list  ListFunc[R]
	label func(R) string
	size  int
	log   zerolog.Logger

	mu    sync.RWMutex
	items []R
	byID  map[int64]R
}

// NewReferenceList returns an empty reference list. size < 1 means
// ReferencePageSize.
func NewReferenceList[R Record](name string, list ListFunc[R], label func(R) string, size int, log zerolog.Logger) *ReferenceList[R] {
	if size < 1 {
		size = ReferencePageSize
	}
	return &ReferenceList[R]{
		name:  name,
		list:  list,
		label: label,
		size:  size,
		log:   log,
		byID:  map[int64]R{},
	}
}

// Load fetches the first page. A failure is logged and leaves the list as
// it was.
func (r *ReferenceList[R]) Load(ctx context.Context) {
	page, err := r.list(ctx, service.Query{Page: 1, PageSize: r.size})
	if err != nil {
		r.log.Warn().Err(err).Str("reference", r.name).Msg("reference list not loaded")
		return
	}
	byID := make(map[int64]R, len(page.Items))
	for _, it := range page.Items {
		byID[it.RecordID()] = it
	}
	r.mu.Lock()
	r.items = page.Items
	r.byID = byID
	r.mu.Unlock()
	r.log.Debug().Str("reference", r.name).Int("count", len(page.Items)).Int("total", page.Total).Msg("reference list loaded")
}

// Items returns the loaded records in server order.
func (r *ReferenceList[R]) Items() []R {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]R(nil), r.items...)
}

// Lookup returns the record with id, if it was loaded.
func (r *ReferenceList[R]) Lookup(id int64) (R, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.byID[id]
	return it, ok
}

// Label returns the display label of id, or "#id" when it is not loaded.
func (r *ReferenceList[R]) Label(id int64) string {
	if it, ok := r.Lookup(id); ok {
		return r.label(it)
	}
	return "#" + strconv.FormatInt(id, 10)
}
