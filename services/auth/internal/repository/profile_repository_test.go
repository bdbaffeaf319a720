package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRole(t *testing.T) {
	mock := newMock(t)
	repo := NewProfileRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_roles")).WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow("admin"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_roles")).WithArgs("u2").
		WillReturnError(pgx.ErrNoRows)

	if role, err := repo.Role(context.Background(), "u1"); err != nil || role != auth.RoleAdmin {
		t.Errorf("Role(u1) = %q, %v", role, err)
	}
	if role, err := repo.Role(context.Background(), "u2"); err != nil || role != auth.RoleStudent {
		t.Errorf("Role(u2) = %q, %v; want student", role, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureAndFind(t *testing.T) {
	mock := newMock(t)
	repo := NewProfileRepository(mock)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "full_name", "avatar_url", "roll_number", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).WithArgs("u1", "ada@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u1", "ada@example.com", "", "", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.Ensure(context.Background(), "u1", "ada@example.com")
	if err != nil || p == nil || p.Email != "ada@example.com" {
		t.Fatalf("Ensure = %+v, %v", p, err)
	}
	p, err = repo.FindByID(context.Background(), "missing")
	if err != nil || p != nil {
		t.Errorf("FindByID(missing) = %+v, %v; want nil, nil", p, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
