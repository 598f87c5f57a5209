// Package pagination follows provider cursors as a lazy, bounded sequence of pages.
package pagination

import (
	"context"
	"iter"
)

// Page is one page of provider results.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc fetches the page that starts at cursor. The first page has an empty cursor.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Pages returns the pages produced by fetch. The sequence ends when the provider
// reports no further cursor, repeats a cursor, or maxItems items have been
// yielded (the last page is truncated to fit). maxItems <= 0 disables the ceiling.
// Each range over the sequence restarts from the first page.
func Pages[T any](ctx context.Context, fetch FetchFunc[T], maxItems int) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		cursor := ""
		seen := 0

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := fetch(ctx, cursor)
			if err != nil {
				yield(nil, err)
				return
			}

			items := page.Items
			if maxItems > 0 && seen+len(items) > maxItems {
				items = items[:maxItems-seen]
			}
			seen += len(items)

			if len(items) > 0 && !yield(items, nil) {
				return
			}

			if page.NextCursor == "" || page.NextCursor == cursor {
				return
			}
			if maxItems > 0 && seen >= maxItems {
				return
			}
			cursor = page.NextCursor
		}
	}
}

// Collect flattens Pages into a single slice.
func Collect[T any](ctx context.Context, fetch FetchFunc[T], maxItems int) ([]T, error) {
	var all []T
	for items, err := range Pages(ctx, fetch, maxItems) {
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}
