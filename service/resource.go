package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"gym-console/api"
)

// Query selects one page of a resource list. Filters are passed through as
// extra query parameters.
type Query struct {
	Page     int
	PageSize int
	Filters  url.Values
}

// Page is one page of a list. Total counts every matching record on the
// server, independent of len(Items).
type Page[T any] struct {
	Items    []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Input is a create body that can also be sent as a full patch.
type Input[P any] interface {
	Patch() P
}

// Resource is the list/get/create/update/delete service of one entity,
// mounted at path (e.g. "/users"). T is the record, C the create input and
// P the partial patch.
type Resource[T any, C Input[P], P any] struct {
	client *api.Client
	path   string
}

// NewResource returns a service for the collection at path.
func NewResource[T any, C Input[P], P any](client *api.Client, path string) *Resource[T, C, P] {
	return &Resource[T, C, P]{client: client, path: path}
}

// Path returns the collection path.
func (r *Resource[T, C, P]) Path() string { return r.path }

func (r *Resource[T, C, P]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

// List fetches one page. Page and PageSize must be at least 1.
func (r *Resource[T, C, P]) List(ctx context.Context, q Query) (Page[T], error) {
	if q.Page < 1 {
		return Page[T]{}, &api.ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if q.PageSize < 1 {
		return Page[T]{}, &api.ValidationError{Field: "page_size", Reason: "must be at least 1"}
	}
	params := url.Values{}
	for k, vs := range q.Filters {
		params[k] = append([]string(nil), vs...)
	}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))

	var page Page[T]
	if err := r.client.Get(ctx, r.path, params, &page); err != nil {
		return Page[T]{}, fmt.Errorf("list %s: %w", r.path, err)
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

// Get fetches one record; the error matches api.ErrNotFound when it does
// not exist.
func (r *Resource[T, C, P]) Get(ctx context.Context, id int64) (T, error) {
	var rec T
	if err := r.client.Get(ctx, r.item(id), nil, &rec); err != nil {
		return rec, fmt.Errorf("get %s: %w", r.item(id), err)
	}
	return rec, nil
}

// Create validates in and creates the record. The server assigns id and
// timestamps.
func (r *Resource[T, C, P]) Create(ctx context.Context, in C) (T, error) {
	var rec T
	if err := Validate(in); err != nil {
		return rec, err
	}
	if err := r.client.Post(ctx, r.path, in, &rec); err != nil {
		return rec, fmt.Errorf("create %s: %w", r.path, err)
	}
	return rec, nil
}

// Update validates in and sends every form field as a patch.
func (r *Resource[T, C, P]) Update(ctx context.Context, id int64, in C) error {
	if err := Validate(in); err != nil {
		return err
	}
	return r.Patch(ctx, id, in.Patch())
}

// Patch changes only the fields set in p.
func (r *Resource[T, C, P]) Patch(ctx context.Context, id int64, p P) error {
	if err := Validate(p); err != nil {
		return err
	}
	if err := r.client.Put(ctx, r.item(id), p, nil); err != nil {
		return fmt.Errorf("update %s: %w", r.item(id), err)
	}
	return nil
}

// Delete removes the record. Deleting an absent record fails with an error
// matching api.ErrNotFound.
func (r *Resource[T, C, P]) Delete(ctx context.Context, id int64) error {
	if err := r.client.Delete(ctx, r.item(id)); err != nil {
		return fmt.Errorf("delete %s: %w", r.item(id), err)
	}
	return nil
}
