// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPageSize is the page size used when the caller does not ask for one.
const DefaultPageSize = 20

// MaxPageSize caps a caller-supplied page size.
const MaxPageSize = 100

// Page is a 1-based offset page request.
type Page struct {
	Number int
	Size   int
}

// Validate rejects page numbers or sizes below 1.
func (p Page) Validate() error {
	if p.Number < 1 {
		return apperr.Invalid("page number must be >= 1, got %d", p.Number)
	}
	if p.Size < 1 {
		return apperr.Invalid("page size must be >= 1, got %d", p.Size)
	}
	return nil
}

// Skip returns the number of documents before this page.
func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Size)
}

// Limit returns the page size as int64 for Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// IsNext reports whether documents remain after this page:
// total > skip + returned.
func IsNext(total, skip int64, returned int) bool {
	return total > skip+int64(returned)
}

// Parse reads "page" and "size" query parameters. Missing or unparsable
// values fall back to page 1 and defaultSize; size is capped at maxSize.
func Parse(r *http.Request, defaultSize, maxSize int) Page {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	p := Page{Number: 1, Size: defaultSize}

	if n, err := strconv.Atoi(query.Get(r, "page")); err == nil && n >= 1 {
		p.Number = n
	}
	if n, err := strconv.Atoi(query.Get(r, "size")); err == nil && n >= 1 {
		p.Size = n
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}
