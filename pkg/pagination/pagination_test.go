package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley/config"
	perrors "github.com/parleyhq/parley/pkg/errors"
)

func bounds() config.PaginationConfig {
	return config.PaginationConfig{
		DefaultPageSize: 10,
		MinPageSize:     1,
		MaxPageSize:     100,
	}
}

func TestNormalize(t *testing.T) {
	p := Params{}.Normalize(bounds())
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	p = Params{Page: 3, PageSize: 25}.Normalize(bounds())
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.PageSize)
}

func TestNormalizeDoesNotClamp(t *testing.T) {
	// Out-of-range requests must surface as validation errors, not be
	// silently adjusted.
	p := Params{Page: 1, PageSize: 999}.Normalize(bounds())
	assert.Equal(t, 999, p.PageSize)
	assert.Error(t, p.Validate(bounds()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", Params{Page: 1, PageSize: 10}, false},
		{"min page size", Params{Page: 1, PageSize: 1}, false},
		{"max page size", Params{Page: 1, PageSize: 100}, false},
		{"page size below min", Params{Page: 1, PageSize: 0}, true},
		{"page size above max", Params{Page: 1, PageSize: 101}, true},
		{"zero page", Params{Page: 0, PageSize: 10}, true},
		{"negative page", Params{Page: -1, PageSize: 10}, true},
		{"deep page", Params{Page: 10000, PageSize: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate(bounds())
			if tt.wantErr {
				assert.True(t, perrors.IsValidation(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLimitOffset(t *testing.T) {
	limit, offset := Params{Page: 1, PageSize: 10}.LimitOffset()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Params{Page: 4, PageSize: 25}.LimitOffset()
	assert.Equal(t, 25, limit)
	assert.Equal(t, 75, offset)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 10, TotalPages(100, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestPageWindowsCoverTotal(t *testing.T) {
	// sum of page windows over all pages equals total
	total := int64(53)
	pageSize := 10
	pages := TotalPages(total, pageSize)
	covered := 0
	for page := 1; page <= pages; page++ {
		limit, offset := Params{Page: page, PageSize: pageSize}.LimitOffset()
		remaining := int(total) - offset
		if remaining < limit {
			limit = remaining
		}
		covered += limit
	}
	assert.Equal(t, int(total), covered)
}
