package http

import "context"

// PageFetcher fetches one page of items. page starts at 1.
// next is the following page number, or 0 when there are no more pages.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, next int, err error)

// PageIterator lazily walks paginated API results.
type PageIterator[T any] struct {
	fetch  PageFetcher[T]
	page   int
	buffer []T
	done   bool
	err    error
}

// NewPageIterator creates an iterator starting at page 1.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{fetch: fetch, page: 1}
}

// Next returns the next item. When iteration is complete it returns
// (zero, false, nil).
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if p.err != nil {
		return zero, false, p.err
	}

	for len(p.buffer) == 0 {
		if p.done {
			return zero, false, nil
		}
		items, next, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		if next == 0 {
			p.done = true
		}
		p.page = next
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	return item, true, nil
}

// Find returns the first item matching fn, fetching pages only as needed.
func (p *PageIterator[T]) Find(ctx context.Context, fn func(T) bool) (T, bool, error) {
	for {
		item, ok, err := p.Next(ctx)
		if err != nil || !ok {
			return item, false, err
		}
		if fn(item) {
			return item, true, nil
		}
	}
}

// All collects all items from the iterator into a slice.
func (p *PageIterator[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for {
		item, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, item)
	}
}
