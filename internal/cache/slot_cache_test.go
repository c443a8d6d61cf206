package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	lawyerID := uuid.MustParse("2b0d7b3e-9c2a-4f7e-8d51-6a1e0f3c9b24")
	from := schedule.NewDate(2024, time.January, 1)
	to := schedule.NewDate(2024, time.February, 29)

	assert.Equal(t, "slots:ver:2b0d7b3e-9c2a-4f7e-8d51-6a1e0f3c9b24", versionKey(lawyerID))
	assert.Equal(t,
		"slots:2b0d7b3e-9c2a-4f7e-8d51-6a1e0f3c9b24:v3:2024-01-01:2024-02-29:2024-01-15",
		windowKey(lawyerID, 3, from, to, schedule.NewDate(2024, time.January, 15)))

	assert.NotEqual(t,
		windowKey(lawyerID, 3, from, to, from),
		windowKey(lawyerID, 4, from, to, from),
		"a version bump must move every window to a fresh key")
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Nop

	require.NoError(t, c.Set(ctx, uuid.New(), 0, 0, 1, 0, []schedule.SlotCandidate{{ID: "x"}}))
	got, _, ok, err := c.Get(ctx, uuid.New(), 0, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx, uuid.New()))
}

func newTestCache(t *testing.T) (*RedisSlotCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotCache(client, time.Minute), mr
}

func testCandidates(lawyerID uuid.UUID) []schedule.SlotCandidate {
	date := schedule.NewDate(2024, time.January, 3)
	return []schedule.SlotCandidate{{
		ID:              "slot-1",
		LawyerID:        lawyerID.String(),
		RuleID:          uuid.NewString(),
		Date:            date,
		StartTime:       9 * 60,
		EndTime:         10 * 60,
		ConsultationFee: decimal.RequireFromString("1500.5"),
	}}
}

func TestRedisSlotCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	lawyerID := uuid.New()
	from, to := schedule.NewDate(2024, time.January, 1), schedule.NewDate(2024, time.January, 31)

	_, version, ok, err := c.Get(ctx, lawyerID, from, to, from)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, version)

	want := testCandidates(lawyerID)
	require.NoError(t, c.Set(ctx, lawyerID, version, from, to, from, want))

	got, _, ok, err := c.Get(ctx, lawyerID, from, to, from)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, want[0].StartTime, got[0].StartTime)
	assert.True(t, want[0].ConsultationFee.Equal(got[0].ConsultationFee))

	key := windowKey(lawyerID, 0, from, to, from)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	_, _, ok, err = c.Get(ctx, lawyerID, from, to, to)
	require.NoError(t, err)
	assert.False(t, ok, "another today is another window")

	require.NoError(t, c.Set(ctx, lawyerID, version, from, to, to, nil))
	got, _, ok, err = c.Get(ctx, lawyerID, from, to, to)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisSlotCache_InvalidateDropsWindows(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	lawyerID, other := uuid.New(), uuid.New()
	from, to := schedule.NewDate(2024, time.January, 1), schedule.NewDate(2024, time.January, 31)

	require.NoError(t, c.Set(ctx, lawyerID, 0, from, to, from, testCandidates(lawyerID)))
	require.NoError(t, c.Set(ctx, other, 0, from, to, from, testCandidates(other)))

	require.NoError(t, c.Invalidate(ctx, lawyerID))

	_, version, ok, err := c.Get(ctx, lawyerID, from, to, from)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, version)

	_, _, ok, err = c.Get(ctx, other, from, to, from)
	require.NoError(t, err)
	assert.True(t, ok, "other lawyers keep their entries")
}

func TestRedisSlotCache_SetAfterInvalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	lawyerID := uuid.New()
	from, to := schedule.NewDate(2024, time.January, 1), schedule.NewDate(2024, time.January, 31)

	_, version, ok, err := c.Get(ctx, lawyerID, from, to, from)
	require.NoError(t, err)
	require.False(t, ok)

	// правило изменилось, пока кандидаты выводились по старому состоянию
	require.NoError(t, c.Invalidate(ctx, lawyerID))
	require.NoError(t, c.Set(ctx, lawyerID, version, from, to, from, testCandidates(lawyerID)))

	_, _, ok, err = c.Get(ctx, lawyerID, from, to, from)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSlotCache_Errors(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	lawyerID := uuid.New()

	require.NoError(t, mr.Set(versionKey(lawyerID), "not-a-number"))
	_, _, _, err := c.Get(ctx, lawyerID, 0, 1, 0)
	assert.Error(t, err)

	other := uuid.New()
	require.NoError(t, mr.Set(windowKey(other, 0, 0, 1, 0), "{broken"))
	_, _, ok, err := c.Get(ctx, other, 0, 1, 0)
	assert.Error(t, err)
	assert.False(t, ok)

	mr.SetError("LOADING")
	assert.Error(t, c.Invalidate(ctx, lawyerID))
}
