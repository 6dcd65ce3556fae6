package order

import (
	"context"

	"github.com/quizfiesta/funnel-api/internal/domain"
)

// Repository is the persistence contract for orders. Implementations must
// provide the conditional-write guarantees the service relies on; nothing
// here may depend on application-level locking.
type Repository interface {
	// FindByExternalID returns the order for the payment provider's id, or
	// ErrNotFound.
	FindByExternalID(ctx context.Context, externalID string) (*domain.Order, error)

	// UpsertPaid inserts or updates the order keyed by ExternalID and
	// returns the stored row. The access token is a protected field: it is
	// written only when the stored value is null, so a concurrent delivery
	// losing the insert race gets the winner's token back. All other
	// non-identity fields are last-write-wins.
	UpsertPaid(ctx context.Context, o *domain.Order) (*domain.Order, error)

	// FindByToken returns the order holding the token, or ErrNotFound.
	FindByToken(ctx context.Context, token string) (*domain.Order, error)

	// LinkUser sets user_id on the order matching token that is paid and
	// currently unlinked. Returns true if a row was updated, false for the
	// silent no-op.
	LinkUser(ctx context.Context, token, userID string) (bool, error)

	// AppendEvent records an audit event alongside the order writes.
	AppendEvent(ctx context.Context, e *domain.Event) error
}
