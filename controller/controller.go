// Package controller holds the console's screen logic, independent of how
// it is drawn: the generic list screen with its editor, the detail screen
// and the reference lists used for display joins.
package controller

import (
	"context"

	"gym-console/service"
)

// Notifier shows the outcome of an action to the operator.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator moves the shell to another route.
type Navigator interface {
	Navigate(route string)
}

// Record is anything with a server assigned id.
type Record interface {
	RecordID() int64
}

// Service is what a list screen needs from a resource service.
// *service.Resource satisfies it.
type Service[T any, F any] interface {
	List(ctx context.Context, q service.Query) (service.Page[T], error)
	Create(ctx context.Context, in F) (T, error)
	Update(ctx context.Context, id int64, in F) error
	Delete(ctx context.Context, id int64) error
}

// Loader is a reference list a screen loads once on mount.
type Loader interface {
	Load(ctx context.Context)
}

// pageCount is ceil(total/size); zero when there is nothing to show.
func pageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
