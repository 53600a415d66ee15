package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"resto/internal/apperrors"
	"resto/internal/models"
	"resto/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*repositories.GORMStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return repositories.NewGORMStore(gdb), mock
}

func TestGORMStoreTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT \* FROM "dishes"`).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectRollback()

	err := store.Transaction(ctx, func(tx repositories.Store) error {
		order := &models.Order{Status: models.StatusPending, Total: decimal.Zero}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		assert.Equal(t, uint(7), order.ID)
		_, err := tx.Dishes().GetByID(ctx, 3)
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGORMStoreTransactionCommits(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transaction(ctx, func(tx repositories.Store) error {
		return tx.Orders().SetTotal(ctx, 7, decimal.RequireFromString("12.50"))
	})
	require.NoError(t, err)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGORMStoreStorageErrors(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "dishes"`).WillReturnError(errors.New("connection reset"))

	_, err := store.Dishes().GetAll(ctx)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
	assert.ErrorContains(t, err, "connection reset")
}

func TestMemoryStoreTransactionRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	require.NoError(t, store.Dishes().Create(ctx, &models.Dish{Name: "Soup", Price: decimal.NewFromInt(4), IsAvailable: true}))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx repositories.Store) error {
		order := &models.Order{Status: models.StatusPending}
		require.NoError(t, tx.Orders().Create(ctx, order))
		require.NoError(t, tx.Orders().AddItem(ctx, &models.OrderItem{OrderID: order.ID, DishID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(4)}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	orders, err := store.Orders().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	// Sequence numbers are rolled back with the data.
	order := &models.Order{Status: models.StatusPending}
	require.NoError(t, store.Orders().Create(ctx, order))
	assert.Equal(t, uint(1), order.ID)
}

func TestMemoryStoreRejectsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	missing := uint(5)
	err := store.Orders().Create(ctx, &models.Order{UserID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	err = store.Orders().AddItem(ctx, &models.OrderItem{OrderID: 1, DishID: 1, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrStorage)

	err = store.Sessions().Create(ctx, &models.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)})
	assert.Error(t, err)
}
