// Package pagination provides the shared page-window computation used by the
// list endpoints. Pure functions, no I/O.
package pagination

import (
	"fmt"

	"github.com/parleyhq/parley/config"
	perrors "github.com/parleyhq/parley/pkg/errors"
)

// Params is a requested page window.
type Params struct {
	Page     int
	PageSize int
}

// Normalize fills in defaults for unset (zero) values. It does not clamp
// out-of-range values; Validate rejects those explicitly.
func (p Params) Normalize(bounds config.PaginationConfig) Params {
	if p.Page == 0 {
		p.Page = config.DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = bounds.DefaultPageSize
	}
	return p
}

// Validate checks the params against the configured bounds. Out-of-range
// values are a validation error, rejected before any storage access.
func (p Params) Validate(bounds config.PaginationConfig) error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d: %w", p.Page, perrors.ErrValidation)
	}
	if p.PageSize < bounds.MinPageSize || p.PageSize > bounds.MaxPageSize {
		return fmt.Errorf("pageSize must be within [%d, %d], got %d: %w",
			bounds.MinPageSize, bounds.MaxPageSize, p.PageSize, perrors.ErrValidation)
	}
	return nil
}

// LimitOffset converts the page window into SQL limit/offset values.
func (p Params) LimitOffset() (limit, offset int) {
	return p.PageSize, (p.Page - 1) * p.PageSize
}

// TotalPages computes ceil(total / pageSize). Zero when total is zero.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
