package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/quizfiesta/funnel-api/internal/domain"
	"github.com/quizfiesta/funnel-api/internal/service/order"
)

// OrderRepo implements order.Repository against PostgreSQL. The webhook
// idempotency guarantee lives in the SQL: external_id is unique, and the
// access token is a protected field written only when previously null.
type OrderRepo struct{ db *sql.DB }

// NewOrderRepo creates a Postgres-backed order repository.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, external_id, status, access_token, token_expiry, email, country,
	net_amount, utm_source, utm_medium, utm_campaign, session_id, user_id, paid_at, created_at`

func (r *OrderRepo) FindByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE external_id = $1`, externalID)
	return scanOrder(row)
}

func (r *OrderRepo) FindByToken(ctx context.Context, token string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE access_token = $1`, token)
	return scanOrder(row)
}

// UpsertPaid is a single conditional upsert: two concurrent first deliveries
// both racing on "absent → insert" are resolved by the unique constraint on
// external_id, with the loser falling through to the update path. The
// COALESCE on access_token guarantees a stored token is never replaced;
// every other non-identity field is last-write-wins.
func (r *OrderRepo) UpsertPaid(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (id, external_id, status, access_token, email, country,
			net_amount, utm_source, utm_medium, utm_campaign, session_id, paid_at, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''),
			$7, $8, $9, $10, NULLIF($11, ''), $12, $13)
		ON CONFLICT (external_id) DO UPDATE SET
			status       = EXCLUDED.status,
			access_token = COALESCE(orders.access_token, EXCLUDED.access_token),
			email        = EXCLUDED.email,
			country      = EXCLUDED.country,
			net_amount   = EXCLUDED.net_amount,
			utm_source   = EXCLUDED.utm_source,
			utm_medium   = EXCLUDED.utm_medium,
			utm_campaign = EXCLUDED.utm_campaign,
			session_id   = COALESCE(EXCLUDED.session_id, orders.session_id),
			paid_at      = EXCLUDED.paid_at
		RETURNING `+orderColumns,
		o.ID, o.ExternalID, string(o.Status), o.AccessToken, o.Email, o.Country,
		o.NetAmount, o.UTMSource, o.UTMMedium, o.UTMCampaign, o.SessionID, o.PaidAt, o.CreatedAt)

	stored, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("upsert order: %w", err)
	}
	return stored, nil
}

// LinkUser is race-free by construction: the conditional update matches at
// most one row, and only while that row is paid and unlinked. A zero-row
// update is the expected silent no-op for repeat or losing calls.
func (r *OrderRepo) LinkUser(ctx context.Context, token, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET user_id = $2
		WHERE access_token = $1 AND status = 'paid' AND user_id IS NULL
	`, token, userID)
	if err != nil {
		return false, fmt.Errorf("link user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link user rows: %w", err)
	}
	return n == 1, nil
}

func (r *OrderRepo) AppendEvent(ctx context.Context, e *domain.Event) error {
	return insertEvent(ctx, r.db, e)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o         domain.Order
		status    string
		token     sql.NullString
		expiry    sql.NullTime
		email     sql.NullString
		country   sql.NullString
		sessionID sql.NullString
		userID    sql.NullString
		paidAt    sql.NullTime
	)
	err := row.Scan(&o.ID, &o.ExternalID, &status, &token, &expiry, &email, &country,
		&o.NetAmount, &o.UTMSource, &o.UTMMedium, &o.UTMCampaign, &sessionID, &userID,
		&paidAt, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Status = domain.OrderStatus(status)
	o.AccessToken = token.String
	o.Email = email.String
	o.Country = country.String
	o.SessionID = sessionID.String
	o.UserID = userID.String
	if expiry.Valid {
		t := expiry.Time
		o.TokenExpiry = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	return &o, nil
}
