package checkin

import (
	"testing"
	"time"

	"github.com/rpggio/cotime/internal/domain/project"
	"github.com/stretchr/testify/require"
)

func TestDayNumber(t *testing.T) {
	require.Equal(t, int64(0), DayNumber(0))
	require.Equal(t, int64(0), DayNumber(86399))
	require.Equal(t, int64(1), DayNumber(86400))
	require.Equal(t, int64(-1), DayNumber(-1))
	require.Equal(t, int64(19723), DayNumber(time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC).Unix()))
}

func TestNextStreak(t *testing.T) {
	day := func(d int64) *int64 { return &d }

	require.Equal(t, uint32(1), NextStreak(0, nil, 100))
	require.Equal(t, uint32(4), NextStreak(3, day(99), 100))
	require.Equal(t, uint32(1), NextStreak(3, day(97), 100))
}

func TestWindowCheck(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w := DefaultWindow()

	require.NoError(t, w.Check(now, now.Unix()))
	require.NoError(t, w.Check(now, now.Add(5*time.Minute).Unix()))
	require.NoError(t, w.Check(now, now.Add(-10*time.Minute).Unix()))
	require.ErrorIs(t, w.Check(now, now.Add(5*time.Minute+time.Second).Unix()), project.ErrReplay)
	require.ErrorIs(t, w.Check(now, now.Add(-10*time.Minute-time.Second).Unix()), project.ErrReplay)
	require.ErrorIs(t, w.Check(now, -5), project.ErrReplay)
}
