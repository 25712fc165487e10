package database

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 99, 12345} {
		got, err := DecodeCursor(EncodeCursor(offset))
		require.NoError(t, err)
		assert.Equal(t, offset, got)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{"!!!", "bm90LWFuLW9mZnNldA", EncodeCursor(-1)} {
		_, err := DecodeCursor(cursor)
		require.Error(t, err, cursor)
		assert.True(t, apierror.IsValidation(err))
	}
}

func TestListParamsWindow(t *testing.T) {
	tests := []struct {
		name       string
		params     ListParams
		wantOffset int
		wantLimit  int
		wantErr    bool
	}{
		{name: "defaults", params: ListParams{}, wantOffset: 0, wantLimit: MaxPageSize},
		{name: "first and skip", params: ListParams{First: 10, Skip: 5}, wantOffset: 5, wantLimit: 10},
		{name: "first capped", params: ListParams{First: 500}, wantLimit: MaxPageSize},
		{name: "after cursor", params: ListParams{First: 2, After: EncodeCursor(3)}, wantOffset: 4, wantLimit: 2},
		{name: "skip after cursor", params: ListParams{Skip: 1, After: EncodeCursor(3)}, wantOffset: 5, wantLimit: MaxPageSize},
		{name: "negative first", params: ListParams{First: -1}, wantErr: true},
		{name: "negative skip", params: ListParams{Skip: -1}, wantErr: true},
		{name: "bad cursor", params: ListParams{After: "nope"}, wantErr: true},
		{name: "cursor out of range", params: ListParams{After: EncodeCursor(math.MaxInt)}, wantErr: true},
		{name: "skip out of range", params: ListParams{Skip: math.MaxInt}, wantErr: true},
		{name: "skip plus cursor overflow", params: ListParams{Skip: MaxOffset, After: EncodeCursor(0)}, wantErr: true},
		{name: "largest offset", params: ListParams{Skip: MaxOffset - 1, After: EncodeCursor(0)}, wantOffset: MaxOffset, wantLimit: MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit, err := tt.params.Window()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apierror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPageNavigation(t *testing.T) {
	page := &Page[Tank]{Items: []*Tank{{ID: "a"}, {ID: "b"}}, Total: 5, Offset: 2}
	assert.True(t, page.HasNextPage())
	assert.True(t, page.HasPreviousPage())
	assert.Equal(t, EncodeCursor(3), page.Cursor(1))

	last := &Page[Tank]{Items: []*Tank{{ID: "a"}}, Total: 1}
	assert.False(t, last.HasNextPage())
	assert.False(t, last.HasPreviousPage())
}

func TestParseOrder(t *testing.T) {
	order, err := ParseOrder("", "createdAt")
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder, order)

	order, err = ParseOrder("createdAt_DESC", "createdAt", "title")
	require.NoError(t, err)
	assert.Equal(t, Order{Field: "createdAt", Desc: true}, order)

	order, err = ParseOrder("title_ASC", "createdAt", "title")
	require.NoError(t, err)
	assert.Equal(t, Order{Field: "title"}, order)

	for _, bad := range []string{"title", "title_UP", "_ASC", "password_ASC"} {
		_, err := ParseOrder(bad, "createdAt", "title")
		require.Error(t, err, bad)
		assert.True(t, apierror.IsValidation(err), bad)
	}
}
