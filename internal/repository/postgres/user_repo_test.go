package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/smartbin/internal/errs"
)

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, email, name, credits, bottles_submitted, total_earned, created_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "credits", "bottles_submitted", "total_earned", "created_at"}).
			AddRow(id, "a@example.com", "Asha", int64(120), int64(7), int64(320), now))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, int64(120), u.Credits)

	mock.ExpectQuery(`SELECT id, email, name, credits, bottles_submitted, total_earned, created_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Summary(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, email, name, credits, bottles_submitted, total_earned, created_at FROM users ORDER BY total_earned DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "credits", "bottles_submitted", "total_earned", "created_at"}).
			AddRow(a, "a@example.com", "Asha", int64(500), int64(40), int64(900), now).
			AddRow(b, "b@example.com", "Borya", int64(50), int64(5), int64(100), now))

	out, err := r.Summary(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, a, out[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectionLogRepo_Append(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDetectionLogRepo(db)

	mock.ExpectExec(`INSERT INTO detection_logs \(waste_type, confidence, destination\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs("dry", 0.91, "processing").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Append(context.Background(), "dry", 0.91, "processing"))
	require.NoError(t, mock.ExpectationsWereMet())
}
