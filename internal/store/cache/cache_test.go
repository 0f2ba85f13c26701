package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/attendance-tracker/internal/attendance"
)

// countingStore records how often each method reaches the backend
type countingStore struct {
	mu      sync.Mutex
	records []attendance.Record
	lists   int
}

func (s *countingStore) ListRange(ctx context.Context, ownerID string, from, to time.Time, order attendance.SortOrder) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	var out []attendance.Record
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *countingStore) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = fmt.Sprintf("r%d", len(s.records)+1)
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *countingStore) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	return rec, nil
}

func TestRangeKey(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	a := rangeKey("u1", 0, from, to, attendance.Ascending)
	assert.NotEqual(t, a, rangeKey("u1", 1, from, to, attendance.Ascending))
	assert.NotEqual(t, a, rangeKey("u1", 0, from, to, attendance.Descending))
	assert.NotEqual(t, a, rangeKey("u2", 0, from, to, attendance.Ascending))
	assert.Equal(t, "attendance:u1:gen", generationKey("u1"))
}

func TestStore_ReadThroughAndInvalidate(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	backend := &countingStore{}
	s, err := New(ctx, backend, Options{Addr: addr, TTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	owner := uuid.NewString()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	_, err = s.Create(ctx, attendance.Record{
		OwnerID: owner,
		CheckIn: attendance.NewTimestamp(from.Add(9 * time.Hour)),
		Status:  attendance.StatusPresent,
	})
	require.NoError(t, err)

	first, err := s.ListRange(ctx, owner, from, to, attendance.Ascending)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.ListRange(ctx, owner, from, to, attendance.Ascending)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].CheckIn.Equal(second[0].CheckIn.Time))
	assert.Equal(t, 1, backend.lists, "second read should come from the cache")

	_, err = s.Create(ctx, attendance.Record{
		OwnerID: owner,
		CheckIn: attendance.NewTimestamp(from.Add(33 * time.Hour)),
		Status:  attendance.StatusLate,
	})
	require.NoError(t, err)

	third, err := s.ListRange(ctx, owner, from, to, attendance.Ascending)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, backend.lists)
}
