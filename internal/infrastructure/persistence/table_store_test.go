package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

func newSQLiteStore(t *testing.T) *GormTableStore {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), nil, gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := NewGormTableStore(db.DB)
	require.NoError(t, store.AutoMigrate())
	return store
}

func newMockStore(t *testing.T) (*GormTableStore, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), nil, gormlogger.Silent)
	require.NoError(t, err)

	return NewGormTableStore(db.DB), mock, mockDB
}

func testTable(t *testing.T, rows ...[]string) *tabular.Table {
	t.Helper()
	grid := append([][]string{{"cod_admin", "descripcion", "stock_actual"}}, rows...)
	table, err := tabular.FromGrid("stock", grid)
	require.NoError(t, err)
	return table
}

func TestGormTableStore_WriteThenRead(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	table := testTable(t,
		[]string{"100", "Queso X", "50"},
		[]string{"", "", ""},
		[]string{"200", "Jamón", "20.5"},
	)

	require.NoError(t, store.WriteTable(ctx, "stock", table))

	back, err := store.ReadTable(ctx, "stock")
	require.NoError(t, err)
	assert.Equal(t, table.Grid(), back.Grid())
	assert.Equal(t, "stock", back.Name)
}

func TestGormTableStore_WriteReplacesRows(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteTable(ctx, "stock", testTable(t,
		[]string{"100", "Queso X", "50"},
		[]string{"200", "Jamon", "20"},
		[]string{"300", "Aceite", "7"},
	)))
	require.NoError(t, store.WriteTable(ctx, "stock", testTable(t,
		[]string{"100", "Queso X", "38"},
	)))

	back, err := store.ReadTable(ctx, "stock")
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "38", back.Cell(0, "stock_actual"))

	var model models.MasterTableModel
	require.NoError(t, store.db.Where("name = ?", "stock").First(&model).Error)
	assert.Equal(t, 2, model.Revision)

	var count int64
	require.NoError(t, store.db.Model(&models.MasterRowModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormTableStore_TablesAreIndependent(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	mapping, err := tabular.FromGrid("mapeo_productos", [][]string{{"producto_venta", "cod_admin"}, {"Queso X", "100"}})
	require.NoError(t, err)

	require.NoError(t, store.WriteTable(ctx, "stock", testTable(t, []string{"100", "Queso X", "50"})))
	require.NoError(t, store.WriteTable(ctx, "mapeo_productos", mapping))
	require.NoError(t, store.WriteTable(ctx, "stock", testTable(t, []string{"100", "Queso X", "49"})))

	back, err := store.ReadTable(ctx, "mapeo_productos")
	require.NoError(t, err)
	assert.Equal(t, mapping.Grid(), back.Grid())
}

func TestGormTableStore_ReadMissing(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.ReadTable(context.Background(), "stock")

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormTableStore_DatabaseFailures(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "master_tables"`).WillReturnError(errors.New("connection reset"))

		_, err := store.ReadTable(context.Background(), "stock")

		assert.ErrorIs(t, err, shared.ErrCollaboratorFailure)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write rolls back", func(t *testing.T) {
		store, mock, mockDB := newMockStore(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "master_tables"`).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err := store.WriteTable(context.Background(), "stock", testTable(t, []string{"1", "x", "2"}))

		assert.ErrorIs(t, err, shared.ErrCollaboratorFailure)
		assert.Contains(t, err.Error(), "stock")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
