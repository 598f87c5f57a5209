package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSource serves pages of pageSize ints out of total, using the page index as cursor.
type pagedSource struct {
	total    int
	pageSize int
	calls    int
	failAt   int
}

func (s *pagedSource) fetch(_ context.Context, cursor string) (Page[int], error) {
	s.calls++
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	if s.failAt > 0 && s.calls == s.failAt {
		return Page[int]{}, errors.New("provider exploded")
	}

	end := min(start+s.pageSize, s.total)
	page := Page[int]{}
	for i := start; i < end; i++ {
		page.Items = append(page.Items, i)
	}
	if end < s.total {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func TestCollect_FollowsCursorToEnd(t *testing.T) {
	src := &pagedSource{total: 7, pageSize: 3}

	items, err := Collect(context.Background(), src.fetch, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, items)
	assert.Equal(t, 3, src.calls)
}

func TestCollect_StopsAtCeiling(t *testing.T) {
	src := &pagedSource{total: 50, pageSize: 10}

	items, err := Collect(context.Background(), src.fetch, 25)
	require.NoError(t, err)

	assert.Len(t, items, 25)
	assert.Equal(t, 24, items[24])
	assert.Equal(t, 3, src.calls, "no page is fetched after the ceiling is reached")
}

func TestCollect_CeilingOnPageBoundary(t *testing.T) {
	src := &pagedSource{total: 50, pageSize: 10}

	items, err := Collect(context.Background(), src.fetch, 20)
	require.NoError(t, err)

	assert.Len(t, items, 20)
	assert.Equal(t, 2, src.calls)
}

func TestCollect_NoCeiling(t *testing.T) {
	src := &pagedSource{total: 12, pageSize: 5}

	items, err := Collect(context.Background(), src.fetch, 0)
	require.NoError(t, err)
	assert.Len(t, items, 12)
}

func TestCollect_PropagatesError(t *testing.T) {
	src := &pagedSource{total: 30, pageSize: 10, failAt: 2}

	items, err := Collect(context.Background(), src.fetch, 100)
	require.Error(t, err)
	assert.Nil(t, items)
	assert.Contains(t, err.Error(), "provider exploded")
}

func TestCollect_RepeatedCursorTerminates(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, _ string) (Page[string], error) {
		calls++
		return Page[string]{Items: []string{"x"}, NextCursor: "same"}, nil
	}

	items, err := Collect(context.Background(), fetch, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x"}, items)
	assert.Equal(t, 2, calls)
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &pagedSource{total: 5, pageSize: 5}
	_, err := Collect(ctx, src.fetch, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls)
}

func TestPages_Restartable(t *testing.T) {
	src := &pagedSource{total: 4, pageSize: 2}
	seq := Pages(context.Background(), src.fetch, 10)

	var first, second [][]int
	for items, err := range seq {
		require.NoError(t, err)
		first = append(first, items)
	}
	for items, err := range seq {
		require.NoError(t, err)
		second = append(second, items)
	}

	assert.Equal(t, first, second)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, first)
}

func TestPages_EarlyBreak(t *testing.T) {
	src := &pagedSource{total: 100, pageSize: 10}

	for items, err := range Pages(context.Background(), src.fetch, 0) {
		require.NoError(t, err)
		assert.Len(t, items, 10)
		break
	}
	assert.Equal(t, 1, src.calls)
}
