package birth

import (
	"context"
	"time"

	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/dependent"
)

// Repository persists birth registrations.
//
// Create and Update repeat the exact-duplicate check inside their transaction
// and return a [*registry.DuplicateError] when it fails.
type Repository interface {
	List(ctx context.Context, filter registry.Filter, limit, offset int) ([]Record, int, error)
	Get(ctx context.Context, id int64) (*Record, error)
	Search(ctx context.Context, term string, limit int) ([]Match, error)
	Statistics(ctx context.Context, monthStart, yearStart time.Time) (Statistics, error)

	FindExact(ctx context.Context, key Key, excludeID int64) (*Record, error)
	FindSimilar(ctx context.Context, key Key, limit int) ([]Match, error)

	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) (dependent.Transition, error)
	Deactivate(ctx context.Context, id int64) error
}
