package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gym-console/controller"
)

// page is a list route together with its detail route.
type page interface {
	Title() string
	Route() string
	Mount(ctx context.Context)
	MountAt(ctx context.Context, page, size int) bool
	Render(w io.Writer)
	SetPage(ctx context.Context, page, size int) bool
	Next(ctx context.Context) bool
	Prev(ctx context.Context) bool
	Create(ctx context.Context, sh *Shell)
	Edit(ctx context.Context, sh *Shell, id int64)
	Delete(ctx context.Context, id int64)
	View(id int64)
	ShowDetail(ctx context.Context, w io.Writer, id int64)
}

// resourcePage renders one entity with the generic list and detail
// controllers.
type resourcePage[T controller.Record, F controller.Record] struct {
	title   string
	noun    string
	list    *controller.List[T, F]
	detail  *controller.Detail[T]
	columns []column[T]
	form    func(*F) []field
	facts   func(T) [][2]string
	// extra renders more of the detail route after the record, e.g. stats.
	extra func(ctx context.Context, w io.Writer, id int64)
}

func (p *resourcePage[T, F]) Title() string             { return p.title }
func (p *resourcePage[T, F]) Route() string             { return p.list.Route() }
func (p *resourcePage[T, F]) Mount(ctx context.Context) { p.list.Mount(ctx) }
func (p *resourcePage[T, F]) View(id int64)             { p.list.View(id) }

func (p *resourcePage[T, F]) MountAt(ctx context.Context, page, size int) bool {
	return p.list.MountAt(ctx, page, size)
}

func (p *resourcePage[T, F]) SetPage(ctx context.Context, page, size int) bool {
	return p.list.SetPage(ctx, page, size)
}

func (p *resourcePage[T, F]) Next(ctx context.Context) bool { return p.list.Next(ctx) }
func (p *resourcePage[T, F]) Prev(ctx context.Context) bool { return p.list.Prev(ctx) }

func (p *resourcePage[T, F]) Delete(ctx context.Context, id int64) { p.list.Delete(ctx, id) }

func (p *resourcePage[T, F]) Render(w io.Writer) {
	st := p.list.State()
	fmt.Fprintf(w, "\n%s\n", p.title)
	if len(st.Items) == 0 {
		fmt.Fprintf(w, "No %s found.\n", strings.ToLower(p.title))
	} else {
		printTable(w, p.columns, st.Items)
	}
	if st.PageCount == 0 {
		fmt.Fprintf(w, "0 pages, %d total, %d per page", st.Total, st.PageSize)
	} else {
		fmt.Fprintf(w, "Page %d of %d, %d total, %d per page", st.Page, st.PageCount, st.Total, st.PageSize)
	}
	if st.Stale {
		fmt.Fprint(w, " (not refreshed)")
	}
	fmt.Fprintln(w)
}

func (p *resourcePage[T, F]) Create(ctx context.Context, sh *Shell) {
	p.list.OpenCreate()
	fmt.Fprintf(sh.out, "New %s\n", p.noun)
	p.runEditor(ctx, sh)
}

func (p *resourcePage[T, F]) Edit(ctx context.Context, sh *Shell, id int64) {
	rec, ok := p.list.Find(id)
	if !ok {
		fmt.Fprintf(sh.out, "No %s #%d on this page.\n", p.noun, id)
		return
	}
	p.list.OpenEdit(rec)
	fmt.Fprintf(sh.out, "Edit %s #%d\n", p.noun, id)
	p.runEditor(ctx, sh)
}

// runEditor prompts through the form until it is saved or abandoned. A
// failed save keeps the entered values for the next round.
func (p *resourcePage[T, F]) runEditor(ctx context.Context, sh *Shell) {
	fmt.Fprintf(sh.out, "Enter keeps a value, %s cancels.\n", cancelInput)
	for {
		st := p.list.State()
		if st.Editing == nil {
			return
		}
		form := st.Editing.Form
		if !sh.fill(p.form(&form)) {
			p.list.Cancel()
			fmt.Fprintln(sh.out, "Cancelled.")
			return
		}
		if p.list.Submit(ctx, form) {
			p.Render(sh.out)
			return
		}
		if !sh.Confirm("Edit again?") {
			p.list.Cancel()
			return
		}
	}
}

func (p *resourcePage[T, F]) ShowDetail(ctx context.Context, w io.Writer, id int64) {
	st := p.detail.Load(ctx, id)
	fmt.Fprintf(w, "\n%s #%d\n", p.title, id)
	switch st.Status {
	case controller.NotFound:
		fmt.Fprintf(w, "No %s #%d.\n", p.noun, id)
		return
	case controller.Failed:
		fmt.Fprintf(w, "Error: could not load %s: %v\n", p.noun, st.Err)
	case controller.Ready:
		printFacts(w, p.facts(st.Record))
	}
	if p.extra != nil {
		p.extra(ctx, w, id)
	}
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }
