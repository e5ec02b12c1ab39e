package ranking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cresceminha.bot/ranking-bot/internal/common"
)

var brt = time.FixedZone("BRT", -3*60*60)

const testChat int64 = -100123

// queueRoller returns the queued deltas in order and fails the test when
// asked for more.
func queueRoller(t *testing.T, deltas ...int64) Roller {
	t.Helper()
	var mu sync.Mutex
	return RollerFunc(func() int64 {
		mu.Lock()
		defer mu.Unlock()
		if len(deltas) == 0 {
			t.Fatalf("roller called more times than expected")
		}
		d := deltas[0]
		deltas = deltas[1:]
		return d
	})
}

func playReq(userID int64, name string) PlayRequest {
	return PlayRequest{ChatID: testChat, UserID: userID, Username: name, DisplayName: "@" + name}
}

// failingRepository fails every call with the configured error.
type failingRepository struct {
	err error
}

func (f failingRepository) Get(context.Context, int64, int64) (*Player, error) { return nil, f.err }
func (f failingRepository) Upsert(context.Context, *Player) error            { return f.err }
func (f failingRepository) ListByChat(context.Context, int64) ([]*Player, error) {
	return nil, f.err
}
func (f failingRepository) Mutate(context.Context, int64, int64, MutateFunc) (*Player, error) {
	return nil, f.err
}
func (f failingRepository) Transfer(context.Context, int64, int64, int64, int64) (*Player, *Player, error) {
	return nil, nil, f.err
}
func (f failingRepository) FindByUsername(context.Context, int64, string) (*Player, error) {
	return nil, f.err
}

func TestService_PlayExample(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, queueRoller(t, 7, -3), brt)

	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, brt)

	// fresh user, forced +7
	out, err := svc.Play(ctx, playReq(1, "joao"), day1)
	require.NoError(t, err)
	require.True(t, out.Accepted)
	assert.Equal(t, int64(7), out.Delta)

	p, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.Score)
	assert.Equal(t, 1, p.TotalPlays)

	// same day → rejected, nothing changes
	out, err = svc.Play(ctx, playReq(1, "joao"), day1.Add(5*time.Hour))
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.ErrorIs(t, out.Reason, common.ErrAlreadyPlayedToday)

	after, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), after.Score)
	assert.Equal(t, 1, after.TotalPlays)
	require.NotNil(t, after.LastPlayAt)
	assert.True(t, after.LastPlayAt.Equal(day1))

	// next day, forced -3
	day2 := day1.Add(24 * time.Hour)
	out, err = svc.Play(ctx, playReq(1, "joao"), day2)
	require.NoError(t, err)
	require.True(t, out.Accepted)
	assert.Equal(t, int64(4), out.Player.Score)
	assert.Equal(t, 2, out.Player.TotalPlays)
}

func TestService_PlayMidnightRollover(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 1, 1), brt)

	lastSecond := time.Date(2024, 3, 1, 23, 59, 59, 0, brt)
	midnight := time.Date(2024, 3, 2, 0, 0, 0, 0, brt)

	out, err := svc.Play(ctx, playReq(1, "ana"), lastSecond)
	require.NoError(t, err)
	require.True(t, out.Accepted)

	out, err = svc.Play(ctx, playReq(1, "ana"), midnight)
	require.NoError(t, err)
	assert.True(t, out.Accepted)
}

func TestService_PlayUsesConfiguredZone(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 2), brt)

	// 22:00 BRT on the 1st and 02:00 UTC on the 2nd are the same BRT date.
	first := time.Date(2024, 3, 1, 22, 0, 0, 0, brt)
	second := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)

	_, err := svc.Play(ctx, playReq(1, "ana"), first)
	require.NoError(t, err)

	out, err := svc.Play(ctx, playReq(1, "ana"), second)
	require.NoError(t, err)
	assert.False(t, out.Accepted)
}

func TestService_PlayClockGoingBackwards(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 5), brt)

	day2 := time.Date(2024, 3, 2, 10, 0, 0, 0, brt)
	_, err := svc.Play(ctx, playReq(1, "ana"), day2)
	require.NoError(t, err)

	out, err := svc.Play(ctx, playReq(1, "ana"), day2.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.False(t, out.Accepted)

	p, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.True(t, p.LastPlayAt.Equal(day2))
}

func TestService_TotalPlaysAfterNPlays(t *testing.T) {
	ctx := context.Background()
	const n = 15
	deltas := make([]int64, n)
	var want int64
	for i := range deltas {
		deltas[i] = int64(i%7) - 2
		want += deltas[i]
	}
	svc := NewService(NewMemoryRepository(), queueRoller(t, deltas...), brt)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, brt)
	var last time.Time
	for i := 0; i < n; i++ {
		last = start.AddDate(0, 0, i)
		out, err := svc.Play(ctx, playReq(1, "ana"), last)
		require.NoError(t, err)
		require.True(t, out.Accepted)
		// a second try the same day never counts
		out, err = svc.Play(ctx, playReq(1, "ana"), last.Add(time.Hour))
		require.NoError(t, err)
		require.False(t, out.Accepted)
	}

	p, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, n, p.TotalPlays)
	assert.Equal(t, want, p.Score)
	assert.True(t, p.LastPlayAt.Equal(last))
}

func TestService_PlayOverwritesDisplayName(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 1, 1), brt)
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, brt)

	_, err := svc.Play(ctx, playReq(1, "old"), day1)
	require.NoError(t, err)
	_, err = svc.Play(ctx, PlayRequest{ChatID: testChat, UserID: 1, DisplayName: "Ana Souza"}, day1.AddDate(0, 0, 1))
	require.NoError(t, err)

	p, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", p.DisplayName)
	assert.Empty(t, p.Username)
}

func TestService_RecordsArePerChat(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), queueRoller(t, 3, 4), brt)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, brt)

	_, err := svc.Play(ctx, PlayRequest{ChatID: -1, UserID: 1, DisplayName: "a"}, now)
	require.NoError(t, err)
	out, err := svc.Play(ctx, PlayRequest{ChatID: -2, UserID: 1, DisplayName: "a"}, now)
	require.NoError(t, err)
	assert.True(t, out.Accepted, "the same day in another chat is a separate record")

	_, err = svc.Stats(ctx, -3, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_ConcurrentPlaysAcceptOnce(t *testing.T) {
	ctx := context.Background()
	var rolls atomic.Int64
	svc := NewService(NewMemoryRepository(), RollerFunc(func() int64 {
		rolls.Add(1)
		return 5
	}), brt)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, brt)

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Play(ctx, playReq(1, "ana"), now)
			if err == nil && out.Accepted {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), accepted.Load())
	assert.Equal(t, int64(1), rolls.Load())

	p, err := svc.Stats(ctx, testChat, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Score)
	assert.Equal(t, 1, p.TotalPlays)
}

func TestService_StorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	svc := NewService(failingRepository{err: boom}, queueRoller(t), brt)

	out, err := svc.Play(ctx, playReq(1, "ana"), time.Now())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Top(ctx, testChat, 10)
	assert.ErrorIs(t, err, common.ErrStorage)

	_, err = svc.Stats(ctx, testChat, 1)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestService_Top(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo, nil, brt)

	seed := []*Player{
		{ChatID: testChat, UserID: 1, DisplayName: "a", Score: 5},
		{ChatID: testChat, UserID: 2, DisplayName: "b", Score: 12},
		{ChatID: -999, UserID: 3, DisplayName: "other chat", Score: 100},
		{ChatID: testChat, UserID: 4, DisplayName: "c", Score: 5},
		{ChatID: testChat, UserID: 5, DisplayName: "d", Score: -3},
		{ChatID: testChat, UserID: 6, DisplayName: "e", Score: 5},
	}
	for _, p := range seed {
		require.NoError(t, repo.Upsert(ctx, p))
	}

	top, err := svc.Top(ctx, testChat, 10)
	require.NoError(t, err)

	var names []string
	for i, p := range top {
		assert.Equal(t, testChat, p.ChatID)
		if i > 0 {
			assert.LessOrEqual(t, p.Score, top[i-1].Score)
		}
		names = append(names, p.DisplayName)
	}
	// ties (a, c, e) keep record order
	assert.Equal(t, []string{"b", "a", "c", "e", "d"}, names)

	limited, err := svc.Top(ctx, testChat, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := svc.Top(ctx, 42, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
