package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"crypto-tracker-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAlert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateAlert(ctx, types.Alert{OwnerID: 42, ChatID: 42, Symbol: " btc ", TargetPrice: 50000, Direction: types.DirectionAbove})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "BTC", a.Symbol)
	assert.False(t, a.Fired)

	got, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Equal(t, s.now(), got.CreatedAt)
}

func TestCreateAlertRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAlert(ctx, types.Alert{OwnerID: 1, Symbol: "", TargetPrice: 10, Direction: types.DirectionAbove})
	assert.True(t, errors.Is(err, types.ErrInvalidAlert))

	_, err = s.CreateAlert(ctx, types.Alert{OwnerID: 1, Symbol: "ETH", TargetPrice: 0, Direction: types.DirectionBelow})
	assert.True(t, errors.Is(err, types.ErrInvalidAlert))

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListActiveSkipsFired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	btc, err := s.CreateAlert(ctx, types.Alert{OwnerID: 42, Symbol: "BTC", TargetPrice: 50000, Direction: types.DirectionAbove})
	require.NoError(t, err)
	eth, err := s.CreateAlert(ctx, types.Alert{OwnerID: 7, Symbol: "ETH", TargetPrice: 2000, Direction: types.DirectionBelow})
	require.NoError(t, err)

	fired, err := s.MarkFired(ctx, btc.ID)
	require.NoError(t, err)
	require.True(t, fired)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, eth.ID, active[0].ID)

	mine, err := s.ListActiveByOwner(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := s.ListActiveByOwner(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestMarkFiredIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateAlert(ctx, types.Alert{OwnerID: 42, Symbol: "BTC", TargetPrice: 50000, Direction: types.DirectionAbove})
	require.NoError(t, err)

	first, err := s.MarkFired(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.MarkFired(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, second)

	got, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Fired)
	assert.Equal(t, s.now(), got.FiredAt)

	_, err = s.MarkFired(ctx, 999)
	assert.True(t, errors.Is(err, types.ErrAlertNotFound))
}

func TestDeleteAlertChecksOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateAlert(ctx, types.Alert{OwnerID: 42, Symbol: "BTC", TargetPrice: 50000, Direction: types.DirectionAbove})
	require.NoError(t, err)

	err = s.DeleteAlert(ctx, a.ID, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotAlertOwner))

	got, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NoError(t, s.DeleteAlert(ctx, a.ID, 42))

	_, err = s.GetAlert(ctx, a.ID)
	assert.True(t, errors.Is(err, types.ErrAlertNotFound))

	err = s.DeleteAlert(ctx, a.ID, 42)
	assert.True(t, errors.Is(err, types.ErrAlertNotFound))
}

func TestOpenSetsBusyTimeout(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	defer s.Close()

	var timeout int
	require.NoError(t, s.DB.QueryRow(`PRAGMA busy_timeout;`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestMetricsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetric("alerts_fired")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, s.AddMetric("alerts_fired", 3))
	require.NoError(t, s.AddMetric("alerts_fired", 5))

	v, err = s.GetMetric("alerts_fired")
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
}
