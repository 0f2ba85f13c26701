package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
)

func record(owner string, in time.Time, out *time.Time, status attendance.Status) attendance.Record {
	rec := attendance.Record{OwnerID: owner, CheckIn: attendance.NewTimestamp(in), Status: status}
	if out != nil {
		ts := attendance.NewTimestamp(*out)
		rec.CheckOut = &ts
	}
	return rec
}

func TestStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"records.json", "records.yaml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(filepath.Join(t.TempDir(), "nested", name), zap.NewNop())

			in := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
			out := in.Add(8 * time.Hour)

			created, err := s.Create(ctx, record("u1", in, nil, attendance.StatusPresent))
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)

			_, err = s.Create(ctx, record("u2", in, nil, attendance.StatusPresent))
			require.NoError(t, err)

			closed := created
			ts := attendance.NewTimestamp(out)
			closed.CheckOut = &ts
			_, err = s.Update(ctx, closed)
			require.NoError(t, err)

			// a fresh store on the same file sees the same data
			reopened := New(s.path, zap.NewNop())
			recs, err := reopened.ListRange(ctx, "u1", in.AddDate(0, 0, -1), in.AddDate(0, 0, 1), attendance.Ascending)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, created.ID, recs[0].ID)

			worked, ok := recs[0].Worked()
			require.True(t, ok)
			assert.Equal(t, 8*time.Hour, worked)
		})
	}
}

func TestStore_ListRangeOrderAndBounds(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "records.json"), zap.NewNop())

	for day := 1; day <= 4; day++ {
		_, err := s.Create(ctx, record("u1", time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC), nil, attendance.StatusPresent))
		require.NoError(t, err)
	}

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 23, 59, 59, 0, time.UTC)

	asc, err := s.ListRange(ctx, "u1", from, to, attendance.Ascending)
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, 2, asc[0].CheckIn.Day())

	desc, err := s.ListRange(ctx, "u1", from, to, attendance.Descending)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, 3, desc[0].CheckIn.Day())
}

func TestStore_KeepsUnparseableTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"records":[
		{"id":"x","user_id":"u1","check_in":"yesterday-ish","check_out":null,"status":"Present","notes":null}
	]}`), 0644))

	s := New(path, zap.NewNop())
	recs, err := s.ListRange(context.Background(), "u1", time.Time{}, time.Now(), attendance.Ascending)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].CheckIn.Valid())
	assert.Equal(t, "yesterday-ish", recs[0].CheckIn.Raw)

	_, err = s.Update(context.Background(), recs[0])
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "yesterday-ish")
}

func TestStore_UpdateMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "records.yml"), zap.NewNop())
	_, err := s.Update(context.Background(), attendance.Record{ID: "nope"})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_KeepsFractionalSeconds(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "records.json"), zap.NewNop())

	in := time.Date(2024, 3, 4, 9, 0, 0, 123456789, time.UTC)
	_, err := s.Create(ctx, record("u1", in, nil, attendance.StatusPresent))
	require.NoError(t, err)

	recs, err := s.ListRange(ctx, "u1", in.AddDate(0, 0, -1), in.AddDate(0, 0, 1), attendance.Ascending)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, in.Equal(recs[0].CheckIn.Time), "got %s", recs[0].CheckIn.Time)
}

func TestStore_UpdateOtherOwner(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "records.yaml"), zap.NewNop())

	in := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	created, err := s.Create(ctx, record("u1", in, nil, attendance.StatusPresent))
	require.NoError(t, err)

	hijack := created
	hijack.OwnerID = "u2"
	hijack.Status = attendance.StatusHoliday
	_, err = s.Update(ctx, hijack)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	recs, err := s.ListRange(ctx, "u1", in.AddDate(0, 0, -1), in.AddDate(0, 0, 1), attendance.Ascending)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, attendance.StatusPresent, recs[0].Status)
}
