package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"gym-console/api"
	"gym-console/gym"
	"gym-console/service"
)

var _ Service[gym.User, gym.UserInput] = (*service.Resource[gym.User, gym.UserInput, gym.UserPatch])(nil)

type rec struct {
	ID   int64
	Name string
}

func (r rec) RecordID() int64 { return r.ID }

type form struct {
	ID   int64
	Name string
}

func (f form) RecordID() int64 { return f.ID }

type fakeService struct {
	mu      sync.Mutex
	queries []service.Query
	creates []form
	updates []int64
	deletes []int64

	list   func(q service.Query) (service.Page[rec], error)
	create func(f form) (rec, error)
	update func(id int64, f form) error
	remove func(id int64) error
}

func (s *fakeService) List(_ context.Context, q service.Query) (service.Page[rec], error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	fn := s.list
	s.mu.Unlock()
	if fn == nil {
		return service.Page[rec]{Items: []rec{}, Page: q.Page, PageSize: q.PageSize}, nil
	}
	return fn(q)
}

func (s *fakeService) Create(_ context.Context, f form) (rec, error) {
	s.mu.Lock()
	s.creates = append(s.creates, f)
	fn := s.create
	s.mu.Unlock()
	if fn == nil {
		return rec{ID: 99, Name: f.Name}, nil
	}
	return fn(f)
}

func (s *fakeService) Update(_ context.Context, id int64, f form) error {
	s.mu.Lock()
	s.updates = append(s.updates, id)
	fn := s.update
	s.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(id, f)
}

func (s *fakeService) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, id)
	fn := s.remove
	s.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(id)
}

func (s *fakeService) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *fakeService) lastQuery() service.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

type notices struct {
	mu       sync.Mutex
	success  []string
	failures []error
}

func (n *notices) Success(msg string) {
	n.mu.Lock()
	n.success = append(n.success, msg)
	n.mu.Unlock()
}

func (n *notices) Failure(_ string, err error) {
	n.mu.Lock()
	n.failures = append(n.failures, err)
	n.mu.Unlock()
}

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

type routes []string

func (r *routes) Navigate(route string) { *r = append(*r, route) }

type counter struct{ n int }

func (c *counter) Load(context.Context) { c.n++ }

func newList(svc *fakeService, n *notices, confirm bool) *List[rec, form] {
	return NewList[rec, form](svc, Config[rec, form]{
		Noun:      "member",
		Route:     "users",
		PageSize:  10,
		FormOf:    func(r rec) form { return form{ID: r.ID, Name: r.Name} },
		Notifier:  n,
		Confirmer: answer(confirm),
		Log:       zerolog.Nop(),
	})
}

func pageOf(total int, ids ...int64) service.Page[rec] {
	items := make([]rec, 0, len(ids))
	for _, id := range ids {
		items = append(items, rec{ID: id, Name: fmt.Sprintf("r%d", id)})
	}
	return service.Page[rec]{Items: items, Total: total}
}

func TestMountLoadsReferencesOnce(t *testing.T) {
	svc := &fakeService{}
	ref := &counter{}
	l := NewList[rec, form](svc, Config[rec, form]{Route: "cards", References: []Loader{ref}})

	l.Mount(context.Background())
	l.Mount(context.Background())

	if ref.n != 1 {
		t.Fatalf("reference loads: got %d want 1", ref.n)
	}
	if svc.listCalls() != 2 {
		t.Fatalf("list calls: got %d want 2", svc.listCalls())
	}
	if q := svc.lastQuery(); q.Page != 1 || q.PageSize != 10 {
		t.Fatalf("query: %+v", q)
	}
}

func TestPageCountUsesTotal(t *testing.T) {
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) {
		return pageOf(23, 1, 2, 3), nil
	}}
	l := newList(svc, &notices{}, true)
	l.Mount(context.Background())

	st := l.State()
	if st.Total != 23 || st.PageCount != 3 {
		t.Fatalf("total/pages: got %d/%d want 23/3", st.Total, st.PageCount)
	}
	if len(st.Items) != 3 {
		t.Fatalf("items: got %d want 3", len(st.Items))
	}

	svc.list = func(service.Query) (service.Page[rec], error) { return pageOf(0), nil }
	l.Refresh(context.Background())
	if st := l.State(); st.PageCount != 0 || st.Items == nil {
		t.Fatalf("empty page: %+v", st)
	}
}

func TestRefreshFailureKeepsItems(t *testing.T) {
	fail := false
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) {
		if fail {
			return service.Page[rec]{}, &api.TransportError{Err: errors.New("connection refused")}
		}
		return pageOf(2, 1, 2), nil
	}}
	n := &notices{}
	l := newList(svc, n, true)
	l.Mount(context.Background())

	fail = true
	if l.Refresh(context.Background()) {
		t.Fatalf("refresh reported success")
	}
	st := l.State()
	if len(st.Items) != 2 || !st.Stale || st.Loading {
		t.Fatalf("state after failure: %+v", st)
	}
	if len(n.failures) != 1 {
		t.Fatalf("failures: got %d want 1", len(n.failures))
	}
}

func TestLastIssuedFetchWins(t *testing.T) {
	release := map[int]chan struct{}{2: make(chan struct{}), 3: make(chan struct{})}
	started := make(chan int, 2)
	svc := &fakeService{list: func(q service.Query) (service.Page[rec], error) {
		started <- q.Page
		<-release[q.Page]
		return pageOf(30, int64(q.Page*100)), nil
	}}
	l := newList(svc, &notices{}, true)
	ctx := context.Background()

	older := make(chan struct{})
	newer := make(chan struct{})
	go func() { defer close(older); l.SetPage(ctx, 2, 10) }()
	<-started
	go func() { defer close(newer); l.SetPage(ctx, 3, 10) }()
	<-started

	close(release[2])
	<-older
	if st := l.State(); !st.Loading || len(st.Items) != 0 {
		t.Fatalf("older response applied: %+v", st)
	}

	close(release[3])
	<-newer
	st := l.State()
	if st.Loading || st.Page != 3 || len(st.Items) != 1 || st.Items[0].ID != 300 {
		t.Fatalf("final state: %+v", st)
	}
}

func TestNextAndPrevStayInRange(t *testing.T) {
	svc := &fakeService{list: func(q service.Query) (service.Page[rec], error) {
		return pageOf(15, int64(q.Page)), nil
	}}
	l := newList(svc, &notices{}, true)
	ctx := context.Background()
	l.Mount(ctx)

	if l.Prev(ctx) {
		t.Fatalf("prev moved before page 1")
	}
	if !l.Next(ctx) {
		t.Fatalf("next did not move to page 2")
	}
	if l.Next(ctx) {
		t.Fatalf("next moved past the last page")
	}
	if st := l.State(); st.Page != 2 {
		t.Fatalf("page: got %d want 2", st.Page)
	}
}

func TestSetPageRejectsInvalid(t *testing.T) {
	svc := &fakeService{}
	n := &notices{}
	l := newList(svc, n, true)
	if l.SetPage(context.Background(), 0, 10) {
		t.Fatalf("page 0 accepted")
	}
	if svc.listCalls() != 0 || len(n.failures) != 1 {
		t.Fatalf("calls=%d failures=%d", svc.listCalls(), len(n.failures))
	}
}

func TestCreateClosesEditorAndRefetchesCurrentPage(t *testing.T) {
	// The server sorts the new record onto another page.
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) {
		return pageOf(12, 6, 7, 8, 9, 10), nil
	}}
	n := &notices{}
	l := newList(svc, n, true)
	ctx := context.Background()
	l.SetPage(ctx, 2, 5)

	l.OpenCreate()
	st := l.State()
	if st.Editing == nil || !st.Editing.New {
		t.Fatalf("editor not open for create: %+v", st.Editing)
	}
	if !l.Submit(ctx, form{Name: "Ann"}) {
		t.Fatalf("submit failed")
	}
	if len(svc.creates) != 1 || len(svc.updates) != 0 {
		t.Fatalf("creates=%d updates=%d", len(svc.creates), len(svc.updates))
	}
	if st := l.State(); st.Editing != nil {
		t.Fatalf("editor still open")
	}
	if q := svc.lastQuery(); q.Page != 2 || q.PageSize != 5 {
		t.Fatalf("refetch query: %+v", q)
	}
	if len(n.success) != 1 {
		t.Fatalf("success notices: %v", n.success)
	}
	st = l.State()
	if len(st.Items) != 5 || st.Total != 12 {
		t.Fatalf("items=%d total=%d", len(st.Items), st.Total)
	}
	for _, it := range st.Items {
		if it.ID == 99 {
			t.Fatalf("created record spliced into the page: %+v", st.Items)
		}
	}
}

func TestEditSubmitsUpdate(t *testing.T) {
	svc := &fakeService{}
	l := newList(svc, &notices{}, true)
	ctx := context.Background()

	l.OpenEdit(rec{ID: 7, Name: "Bo"})
	st := l.State()
	if st.Editing == nil || st.Editing.New || st.Editing.Form.ID != 7 || st.Editing.Form.Name != "Bo" {
		t.Fatalf("editor: %+v", st.Editing)
	}
	if !l.Submit(ctx, form{ID: 7, Name: "Bob"}) {
		t.Fatalf("submit failed")
	}
	if len(svc.updates) != 1 || svc.updates[0] != 7 || len(svc.creates) != 0 {
		t.Fatalf("updates=%v creates=%d", svc.updates, len(svc.creates))
	}
}

func TestSubmitFailureKeepsEditor(t *testing.T) {
	svc := &fakeService{create: func(form) (rec, error) {
		return rec{}, &api.ValidationError{Field: "phone", Reason: "is required"}
	}}
	n := &notices{}
	l := newList(svc, n, true)
	ctx := context.Background()

	l.OpenCreate()
	if l.Submit(ctx, form{Name: "typed"}) {
		t.Fatalf("submit reported success")
	}
	st := l.State()
	if st.Editing == nil || st.Editing.Form.Name != "typed" {
		t.Fatalf("editor lost values: %+v", st.Editing)
	}
	if svc.listCalls() != 0 {
		t.Fatalf("list refetched after failure")
	}
	var ve *api.ValidationError
	if len(n.failures) != 1 || !errors.As(n.failures[0], &ve) {
		t.Fatalf("failures: %v", n.failures)
	}
}

func TestSubmitWithoutEditorIgnored(t *testing.T) {
	svc := &fakeService{}
	l := newList(svc, &notices{}, true)
	if l.Submit(context.Background(), form{Name: "x"}) {
		t.Fatalf("submit without editor accepted")
	}
	if len(svc.creates) != 0 {
		t.Fatalf("create called")
	}
}

func TestSecondSubmitIgnoredWhileSaving(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeService{create: func(f form) (rec, error) {
		close(entered)
		<-release
		return rec{ID: 1, Name: f.Name}, nil
	}}
	l := newList(svc, &notices{}, true)
	ctx := context.Background()
	l.OpenCreate()

	done := make(chan bool)
	go func() { done <- l.Submit(ctx, form{Name: "first"}) }()
	<-entered

	if l.Submit(ctx, form{Name: "second"}) {
		t.Fatalf("second submit accepted")
	}
	if l.Delete(ctx, 3) {
		t.Fatalf("delete accepted during save")
	}
	close(release)
	if !<-done {
		t.Fatalf("first submit failed")
	}
	if len(svc.creates) != 1 || len(svc.deletes) != 0 {
		t.Fatalf("creates=%d deletes=%d", len(svc.creates), len(svc.deletes))
	}
}

func TestDeleteCancelledMakesNoCalls(t *testing.T) {
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) { return pageOf(1, 4), nil }}
	l := newList(svc, &notices{}, false)
	l.Mount(context.Background())
	before := l.State()

	if l.Delete(context.Background(), 4) {
		t.Fatalf("delete ran without confirmation")
	}
	if len(svc.deletes) != 0 || svc.listCalls() != 1 {
		t.Fatalf("deletes=%d lists=%d", len(svc.deletes), svc.listCalls())
	}
	if after := l.State(); len(after.Items) != len(before.Items) {
		t.Fatalf("state changed")
	}
}

func TestDeleteMissingCountsAsDeleted(t *testing.T) {
	svc := &fakeService{remove: func(int64) error {
		return fmt.Errorf("delete /users/4: %w", &api.ApplicationError{Code: 404, Message: "User not found"})
	}}
	n := &notices{}
	l := newList(svc, n, true)

	if !l.Delete(context.Background(), 4) {
		t.Fatalf("delete of missing record failed")
	}
	if svc.listCalls() != 1 || len(n.success) != 1 {
		t.Fatalf("lists=%d success=%d", svc.listCalls(), len(n.success))
	}
}

func TestDeleteShownRecordRefreshesPage(t *testing.T) {
	deleted := false
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) {
		if deleted {
			return pageOf(2, 3, 7), nil
		}
		return pageOf(3, 3, 5, 7), nil
	}}
	svc.remove = func(int64) error {
		deleted = true
		return nil
	}
	l := newList(svc, &notices{}, true)
	ctx := context.Background()
	l.Mount(ctx)

	if !l.Delete(ctx, 5) {
		t.Fatalf("delete failed")
	}
	st := l.State()
	if st.Total != 2 {
		t.Fatalf("total: got %d want 2", st.Total)
	}
	for _, it := range st.Items {
		if it.ID == 5 {
			t.Fatalf("deleted record still listed: %+v", st.Items)
		}
	}
	if len(svc.deletes) != 1 || svc.deletes[0] != 5 {
		t.Fatalf("deletes: %v", svc.deletes)
	}
}

func TestMountAtFetchesOnce(t *testing.T) {
	svc := &fakeService{}
	ref := &counter{}
	l := NewList[rec, form](svc, Config[rec, form]{Route: "cards", PageSize: 10, References: []Loader{ref}})

	if !l.MountAt(context.Background(), 3, 4) {
		t.Fatalf("mount failed")
	}
	if svc.listCalls() != 1 || ref.n != 1 {
		t.Fatalf("list calls=%d reference loads=%d", svc.listCalls(), ref.n)
	}
	if q := svc.lastQuery(); q.Page != 3 || q.PageSize != 4 {
		t.Fatalf("query: %+v", q)
	}
}

func TestDeleteFailureKeepsList(t *testing.T) {
	svc := &fakeService{
		list:   func(service.Query) (service.Page[rec], error) { return pageOf(1, 4), nil },
		remove: func(int64) error { return &api.HTTPError{Status: 500, Message: "boom"} },
	}
	n := &notices{}
	l := newList(svc, n, true)
	l.Mount(context.Background())

	if l.Delete(context.Background(), 4) {
		t.Fatalf("delete reported success")
	}
	if svc.listCalls() != 1 || len(n.failures) != 1 {
		t.Fatalf("lists=%d failures=%d", svc.listCalls(), len(n.failures))
	}
	if st := l.State(); len(st.Items) != 1 || st.Mutating {
		t.Fatalf("state: %+v", st)
	}
}

func TestViewNavigatesToDetail(t *testing.T) {
	var r routes
	l := NewList[rec, form](&fakeService{}, Config[rec, form]{Route: "coaches", Navigator: &r})
	l.View(12)
	if len(r) != 1 || r[0] != "coaches/12" {
		t.Fatalf("routes: %v", r)
	}
}

func TestFindLooksInCurrentPage(t *testing.T) {
	svc := &fakeService{list: func(service.Query) (service.Page[rec], error) { return pageOf(2, 5, 6), nil }}
	l := newList(svc, &notices{}, true)
	l.Mount(context.Background())
	if r, ok := l.Find(6); !ok || r.Name != "r6" {
		t.Fatalf("find 6: %+v %v", r, ok)
	}
	if _, ok := l.Find(7); ok {
		t.Fatalf("found record not on page")
	}
}
