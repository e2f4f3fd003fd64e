package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"docflow/internal/model"
	"docflow/internal/testutil"
)

func TestSequenceRepository_Next(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	t.Run("increments per type and year", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := repo.Next(ctx, model.DocTypeInvoice, 2026)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := repo.Next(ctx, model.DocTypeInvoice, 2027)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got, "new year restarts")

		got, err = repo.Next(ctx, model.DocTypeProforma, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got, "types are independent")
	})

	t.Run("seeds from existing documents", func(t *testing.T) {
		customer := testutil.CreateCustomer(t, db, "Seed")
		user := testutil.CreateUser(t, db, model.RoleEmployee, nil)
		for i := 0; i < 4; i++ {
			testutil.CreateDocument(t, db, &model.Document{
				DocumentType: model.DocTypeReceipt,
				CustomerID:   customer.ID,
				CreatedBy:    user.ID,
				CreatedAt:    time.Date(2026, 4, 1, i, 0, 0, 0, time.UTC),
			})
		}

		got, err := repo.Next(ctx, model.DocTypeReceipt, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got)
	})

	t.Run("rolled back allocation is reused", func(t *testing.T) {
		tm := NewTransactionManager(db)
		errAbort := errors.New("abort")

		err := tm.RunInTx(ctx, func(txCtx context.Context) error {
			got, err := repo.Next(txCtx, model.DocTypeOther, 2026)
			require.NoError(t, err)
			assert.Equal(t, int64(1), got)
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		got, err := repo.Next(ctx, model.DocTypeOther, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

func TestSequenceRepository_Next_PostgresSQL(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	repo := NewSequenceRepository(gormDB)

	t.Run("single upsert statement", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO document_sequences (document_type, year, last_value, updated_at)`)+
			`.*ON CONFLICT \(document_type, year\) DO UPDATE SET last_value = document_sequences\.last_value \+ 1.*RETURNING last_value`).
			WithArgs(model.DocTypeInvoice, 2026, model.DocTypeInvoice, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(42))

		got, err := repo.Next(context.Background(), model.DocTypeInvoice, 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates store errors", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO document_sequences`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Next(context.Background(), model.DocTypeInvoice, 2026)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
