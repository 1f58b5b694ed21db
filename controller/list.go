package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"gym-console/api"
	"gym-console/service"
)

// Config describes one list screen.
type Config[T Record, F Record] struct {
	// Noun names one record in messages, e.g. "user".
	Noun string
	// Route is the screen's route; details live at Route/<id>.
	Route    string
	PageSize int
	// Blank returns the defaults of the create form.
	Blank func() F
	// FormOf pre-populates the edit form from a record.
	FormOf func(T) F
	// References are loaded once when the screen is first mounted.
	References []Loader

	Notifier  Notifier
	Confirmer Confirmer
	Navigator Navigator
	Log       zerolog.Logger
}

// Editor is the open create/edit form. New marks a record that does not
// exist yet.
type Editor[F any] struct {
	New  bool
	Form F
}

// State is a snapshot of a list screen.
type State[T any, F any] struct {
	Items     []T
	Total     int
	Page      int
	PageSize  int
	PageCount int
	Loading   bool
	// Stale is set when the last fetch failed and Items are from before it.
	Stale    bool
	Mutating bool
	Editing  *Editor[F]
}

// List drives a paginated table with a create/edit form and delete.
//
// Fetches are stamped with a sequence number; only the most recently issued
// fetch may apply its result or clear Loading. At most one mutation runs at
// a time; a submit or delete issued meanwhile is ignored.
type List[T Record, F Record] struct {
	svc Service[T, F]
	cfg Config[T, F]
	log zerolog.Logger

	mu       sync.Mutex
	items    []T
	total    int
	page     int
	pageSize int
	loading  bool
	stale    bool
	seq      uint64
	editing  *Editor[F]
	mutating bool
	mounted  bool
}

// NewList returns a list screen on page 1.
func NewList[T Record, F Record](svc Service[T, F], cfg Config[T, F]) *List[T, F] {
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.Blank == nil {
		cfg.Blank = func() F {
			var f F
			return f
		}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &List[T, F]{
		svc:      svc,
		cfg:      cfg,
		log:      cfg.Log.With().Str("screen", cfg.Route).Logger(),
		items:    []T{},
		page:     1,
		pageSize: cfg.PageSize,
	}
}

// Route returns the screen's route.
func (l *List[T, F]) Route() string { return l.cfg.Route }

// Mount loads the reference lists the first time and fetches the current page.
func (l *List[T, F]) Mount(ctx context.Context) {
	l.loadReferences(ctx)
	l.Refresh(ctx)
}

// MountAt is Mount opening on page with size, in a single fetch.
func (l *List[T, F]) MountAt(ctx context.Context, page, size int) bool {
	l.loadReferences(ctx)
	return l.SetPage(ctx, page, size)
}

func (l *List[T, F]) loadReferences(ctx context.Context) {
	l.mu.Lock()
	first := !l.mounted
	l.mounted = true
	l.mu.Unlock()

	if first {
		for _, ref := range l.cfg.References {
			ref.Load(ctx)
		}
	}
}

// Refresh fetches the current page. It reports whether this call's result
// was applied; a failed or superseded fetch returns false.
func (l *List[T, F]) Refresh(ctx context.Context) bool {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	q := service.Query{Page: l.page, PageSize: l.pageSize}
	l.loading = true
	l.mu.Unlock()

	res, err := l.svc.List(ctx, q)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		l.log.Debug().Uint64("seq", seq).Int("page", q.Page).Msg("discarding superseded page")
		return false
	}
	l.loading = false
	if err != nil {
		l.stale = true
		l.mu.Unlock()
		l.cfg.Notifier.Failure(fmt.Sprintf("Could not load %s list", l.cfg.Noun), err)
		return false
	}
	l.items = res.Items
	l.total = res.Total
	l.stale = false
	l.mu.Unlock()
	return true
}

// SetPage moves to page with the given page size and fetches it.
func (l *List[T, F]) SetPage(ctx context.Context, page, size int) bool {
	if page < 1 || size < 1 {
		l.cfg.Notifier.Failure("Invalid page", &api.ValidationError{Field: "page", Reason: "page and size must be at least 1"})
		return false
	}
	l.mu.Lock()
	l.page, l.pageSize = page, size
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Next moves one page forward when there is one.
func (l *List[T, F]) Next(ctx context.Context) bool {
	l.mu.Lock()
	page, size := l.page, l.pageSize
	last := pageCount(l.total, l.pageSize)
	l.mu.Unlock()
	if page >= last {
		return false
	}
	return l.SetPage(ctx, page+1, size)
}

// Prev moves one page back when there is one.
func (l *List[T, F]) Prev(ctx context.Context) bool {
	l.mu.Lock()
	page, size := l.page, l.pageSize
	l.mu.Unlock()
	if page <= 1 {
		return false
	}
	return l.SetPage(ctx, page-1, size)
}

// Find returns the record with id among the current page's items.
func (l *List[T, F]) Find(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// OpenCreate opens an empty form for a new record.
func (l *List[T, F]) OpenCreate() {
	l.mu.Lock()
	l.editing = &Editor[F]{New: true, Form: l.cfg.Blank()}
	l.mu.Unlock()
}

// OpenEdit opens the form pre-populated from rec.
func (l *List[T, F]) OpenEdit(rec T) {
	l.mu.Lock()
	l.editing = &Editor[F]{Form: l.cfg.FormOf(rec)}
	l.mu.Unlock()
}

// Cancel closes the form without saving.
func (l *List[T, F]) Cancel() {
	l.mu.Lock()
	l.editing = nil
	l.mu.Unlock()
}

// Submit saves form: an update when form carries an id, a create
// otherwise. On success the form closes and the current page is fetched
// again. On failure the form stays open holding form.
func (l *List[T, F]) Submit(ctx context.Context, form F) bool {
	l.mu.Lock()
	if l.editing == nil || l.mutating {
		busy := l.mutating
		l.mu.Unlock()
		l.log.Debug().Bool("mutating", busy).Msg("submit ignored")
		return false
	}
	l.mutating = true
	l.mu.Unlock()

	id := form.RecordID()
	var err error
	verb := "created"
	if id != 0 {
		verb = "updated"
		err = l.svc.Update(ctx, id, form)
	} else {
		_, err = l.svc.Create(ctx, form)
	}

	l.mu.Lock()
	l.mutating = false
	if err != nil {
		if l.editing != nil {
			l.editing.Form = form
		}
		l.mu.Unlock()
		l.cfg.Notifier.Failure(fmt.Sprintf("Could not save %s", l.cfg.Noun), err)
		return false
	}
	l.editing = nil
	l.mu.Unlock()

	l.log.Info().Int64("id", id).Str("action", verb).Msg("record saved")
	l.cfg.Notifier.Success(fmt.Sprintf("%s %s", capitalize(l.cfg.Noun), verb))
	l.Refresh(ctx)
	return true
}

// Delete removes the record with id after the operator confirms. A record
// that is already gone counts as deleted.
func (l *List[T, F]) Delete(ctx context.Context, id int64) bool {
	if l.cfg.Confirmer == nil || !l.cfg.Confirmer.Confirm(fmt.Sprintf("Delete %s #%d?", l.cfg.Noun, id)) {
		return false
	}

	l.mu.Lock()
	if l.mutating {
		l.mu.Unlock()
		l.log.Debug().Int64("id", id).Msg("delete ignored")
		return false
	}
	l.mutating = true
	l.mu.Unlock()

	err := l.svc.Delete(ctx, id)

	l.mu.Lock()
	l.mutating = false
	l.mu.Unlock()

	if err != nil && !api.IsNotFound(err) {
		l.cfg.Notifier.Failure(fmt.Sprintf("Could not delete %s", l.cfg.Noun), err)
		return false
	}
	l.log.Info().Int64("id", id).Str("action", "deleted").Msg("record deleted")
	l.cfg.Notifier.Success(fmt.Sprintf("%s deleted", capitalize(l.cfg.Noun)))
	l.Refresh(ctx)
	return true
}

// View opens the detail route of id.
func (l *List[T, F]) View(id int64) {
	if l.cfg.Navigator != nil {
		l.cfg.Navigator.Navigate(fmt.Sprintf("%s/%d", l.cfg.Route, id))
	}
}

// State returns a snapshot safe to read while fetches run.
func (l *List[T, F]) State() State[T, F] {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := State[T, F]{
		Items:     append(make([]T, 0, len(l.items)), l.items...),
		Total:     l.total,
		Page:      l.page,
		PageSize:  l.pageSize,
		PageCount: pageCount(l.total, l.pageSize),
		Loading:   l.loading,
		Stale:     l.stale,
		Mutating:  l.mutating,
	}
	if l.editing != nil {
		ed := *l.editing
		st.Editing = &ed
	}
	return st
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

type nopNotifier struct{}

func (nopNotifier) Success(string)        {}
func (nopNotifier) Failure(string, error) {}
