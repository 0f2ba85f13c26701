package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
)

// testStore runs each test inside a rolled-back transaction
func testStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	require.NoError(t, EnsureSchema(ctx, tx))
	return NewStore(tx, zap.NewNop())
}

func TestStore_CreateListUpdate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	owner := uuid.NewString()

	in := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, attendance.Record{
		OwnerID: owner,
		CheckIn: attendance.NewTimestamp(in),
		Status:  attendance.StatusPresent,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.IsOpen())

	out := attendance.NewTimestamp(in.Add(8*time.Hour + 30*time.Minute))
	created.CheckOut = &out
	updated, err := s.Update(ctx, created)
	require.NoError(t, err)

	worked, ok := updated.Worked()
	require.True(t, ok)
	assert.Equal(t, 8*time.Hour+30*time.Minute, worked)

	recs, err := s.ListRange(ctx, owner, in.AddDate(0, 0, -1), in.AddDate(0, 0, 1), attendance.Descending)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, created.ID, recs[0].ID)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := testStore(t)

	_, err := s.Update(context.Background(), attendance.Record{
		ID:      uuid.NewString(),
		CheckIn: attendance.NewTimestamp(time.Now()),
		Status:  attendance.StatusPresent,
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_UpdateOtherOwner(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, attendance.Record{
		OwnerID: uuid.NewString(),
		CheckIn: attendance.NewTimestamp(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)),
		Status:  attendance.StatusPresent,
	})
	require.NoError(t, err)

	created.OwnerID = uuid.NewString()
	created.Status = attendance.StatusHoliday
	_, err = s.Update(ctx, created)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_attendance.up.sql")
	assert.Contains(t, names, "000001_create_attendance.down.sql")

	up, err := migrationsFS.ReadFile(initialMigration)
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS attendance")
}
