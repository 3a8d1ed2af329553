package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-session-billing/internal/model"
)

func beginMockTx(t *testing.T) (*SessionRepo, sqlmock.Sqlmock, *sql.Tx, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return NewSessionRepo(db), mock, tx, func() { _ = db.Close() }
}

func TestEnsureTableFreeTxOccupied(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM sessions WHERE table_id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

	err := repo.EnsureTableFreeTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrTableOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTableFreeTxFree(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM sessions WHERE table_id").
		WillReturnError(sql.ErrNoRows)

	err := repo.EnsureTableFreeTx(context.Background(), tx, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxDuplicateTableIsOccupied(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	// Two seatings can both pass the gap-locked free check; the unique
	// index on table_id rejects the second insert.
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'sessions.table_id'"})

	err := repo.CreateTx(context.Background(), tx, &model.Session{
		StoreID:    1,
		TableID:    7,
		StartAt:    time.Now().UTC(),
		GuestCount: 2,
	})
	assert.ErrorIs(t, err, ErrTableOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxAssignsID(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(42, 1))

	sess := &model.Session{StoreID: 1, TableID: 7, StartAt: time.Now().UTC(), GuestCount: 2}
	require.NoError(t, repo.CreateTx(context.Background(), tx, sess))
	assert.Equal(t, uint64(42), sess.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveTableTxDeadlockIsOccupied(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	mock.ExpectExec("UPDATE sessions").
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})

	err := repo.MoveTableTx(context.Background(), tx, 5, 7, time.Now().UTC())
	assert.ErrorIs(t, err, ErrTableOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxOtherErrorsPassThrough(t *testing.T) {
	repo, mock, tx, cleanup := beginMockTx(t)
	defer cleanup()

	driverErr := &mysql.MySQLError{Number: 1146, Message: "Table 'sessions' doesn't exist"}
	mock.ExpectExec("INSERT INTO sessions").WillReturnError(driverErr)

	err := repo.CreateTx(context.Background(), tx, &model.Session{TableID: 7, StartAt: time.Now().UTC()})
	assert.NotErrorIs(t, err, ErrTableOccupied)
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
