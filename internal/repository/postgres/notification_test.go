package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"chama-backend/internal/domain"
	"chama-backend/internal/repository/postgres"
)

func TestNotificationRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		n := &domain.Notification{
			UserID:     3,
			GroupID:    1,
			Title:      "Approval required",
			Message:    "Expense awaits your approval",
			Attributes: map[string]string{"transaction_id": "42"},
		}
		mock.ExpectQuery("INSERT INTO notifications").
			WithArgs(int32(3), int32(1), n.Title, n.Message, false, []byte(`{"transaction_id":"42"}`), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		assert.NoError(t, repo.Create(ctx, n))
		assert.Equal(t, int32(5), n.ID)
	})

	t.Run("List", func(t *testing.T) {
		mock.ExpectQuery("SELECT count").WithArgs(int32(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM notifications WHERE user_id").
			WithArgs(int32(3), int32(20), int64(0)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "title", "message", "is_read", "attributes", "created_on"}).
				AddRow(5, 3, 1, "Approval required", "msg", false, []byte(`{"transaction_id":"42"}`), time.Now()))

		notes, count, err := repo.List(ctx, 3, 20, 0)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), count)
		assert.Len(t, notes, 1)
		assert.Equal(t, "42", notes[0].Attributes["transaction_id"])
	})

	t.Run("MarkAsRead of someone else's notification", func(t *testing.T) {
		mock.ExpectExec("UPDATE notifications SET is_read").
			WithArgs(int32(5), int32(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkAsRead(ctx, 5, 4)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
