// Package ops implements the template tool operations: uploads, conversion
// jobs, the template library and website templates. Transports (HTTP, MCP,
// CLI) call these functions and render their results.
package ops

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/studio/internal/db"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Runner executes conversion jobs. Implementations either run the job
// before returning or hand it to background workers.
type Runner interface {
	Submit(ctx context.Context, jobID string) error
}

// page clamps limit and offset to the list bounds.
func page(limit, offset int) db.Page {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return db.Page{Limit: limit, Offset: max(offset, 0)}
}

func paginate(p db.Page, n, total int) Pagination {
	return Pagination{
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+n < total,
		Total:   total,
	}
}

// NewID returns a fresh ULID string.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
