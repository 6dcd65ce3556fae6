package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/quizfiesta/funnel-api/internal/domain"
	"github.com/quizfiesta/funnel-api/internal/service/order"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

var orderRows = []string{
	"id", "external_id", "status", "access_token", "token_expiry", "email", "country",
	"net_amount", "utm_source", "utm_medium", "utm_campaign", "session_id", "user_id",
	"paid_at", "created_at",
}

func TestFindByExternalID_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE external_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByExternalID(context.Background(), "missing")
	if !errors.Is(err, order.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByToken_ScansNullableColumns(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE access_token").
		WithArgs("deadbeef00000000").
		WillReturnRows(sqlmock.NewRows(orderRows).AddRow(
			"11111111-1111-4111-8111-111111111111", "abc123", "paid",
			"deadbeef00000000", nil, nil, nil,
			19.90, "", "", "", nil, nil, now, now,
		))

	o, err := repo.FindByToken(context.Background(), "deadbeef00000000")
	if err != nil {
		t.Fatalf("FindByToken: %v", err)
	}
	if o.ExternalID != "abc123" || o.Status != domain.OrderPaid {
		t.Errorf("unexpected order: %+v", o)
	}
	if o.Email != "" || o.SessionID != "" || o.UserID != "" || o.TokenExpiry != nil {
		t.Errorf("null columns must scan to zero values: %+v", o)
	}
	if o.PaidAt == nil {
		t.Error("paid_at should be set")
	}
}

func TestUpsertPaid_ReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	now := time.Now()
	// Re-delivery: the database keeps the original token, not ours.
	mock.ExpectQuery("INSERT INTO orders (.+) ON CONFLICT \\(external_id\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows(orderRows).AddRow(
			"11111111-1111-4111-8111-111111111111", "abc123", "paid",
			"originaltoken0000", nil, "a@b.com", nil,
			19.90, "", "", "", nil, nil, now, now,
		))

	stored, err := repo.UpsertPaid(context.Background(), &domain.Order{
		ExternalID:  "abc123",
		Status:      domain.OrderPaid,
		AccessToken: "freshlyminted0000",
		Email:       "a@b.com",
		NetAmount:   19.90,
		PaidAt:      &now,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("UpsertPaid: %v", err)
	}
	if stored.AccessToken != "originaltoken0000" {
		t.Errorf("expected the stored token to survive, got %s", stored.AccessToken)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLinkUser_RowUpdated(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	mock.ExpectExec("UPDATE orders SET user_id").
		WithArgs("token0000000000a", "22222222-2222-4222-8222-222222222222").
		WillReturnResult(sqlmock.NewResult(0, 1))

	linked, err := repo.LinkUser(context.Background(), "token0000000000a", "22222222-2222-4222-8222-222222222222")
	if err != nil {
		t.Fatalf("LinkUser: %v", err)
	}
	if !linked {
		t.Error("expected linked=true when a row matched")
	}
}

func TestLinkUser_NoMatch_SilentNoOp(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewOrderRepo(db)

	mock.ExpectExec("UPDATE orders SET user_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	linked, err := repo.LinkUser(context.Background(), "token0000000000a", "22222222-2222-4222-8222-222222222222")
	if err != nil {
		t.Fatalf("LinkUser: %v", err)
	}
	if linked {
		t.Error("expected linked=false for a zero-row update")
	}
}
