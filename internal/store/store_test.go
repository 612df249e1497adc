package store_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"linkcycle/internal/model"
	"linkcycle/internal/store"
	"linkcycle/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter int64

// newTestStore opens a fresh in-memory database per test so state
// never leaks between tests despite gorm's connection pooling.
func newTestStore(t *testing.T) (*store.Store, *clock.Mock, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.LinkRecord{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	clk := clock.NewMock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	return store.New(db, clk), clk, db
}

func TestCreateActive_NewCode(t *testing.T) {
	st, clk, _ := newTestStore(t)

	rec, err := st.CreateActive("abc123", "https://example.com/a", false)
	require.NoError(t, err)

	assert.Equal(t, "abc123", rec.Code)
	assert.Equal(t, "https://example.com/a", rec.TargetURL)
	assert.True(t, rec.Active)
	assert.False(t, rec.NeverExpires)
	assert.False(t, rec.Monetize)
	assert.Equal(t, int64(0), rec.ClickCount)
	assert.True(t, rec.CreatedAt.Equal(clk.Now()))
	assert.True(t, rec.LastAccessAt.Equal(clk.Now()))
}

func TestCreateActive_ConflictOnLiveCode(t *testing.T) {
	st, _, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com/a", false)
	require.NoError(t, err)

	_, err = st.CreateActive("abc123", "https://example.com/b", false)
	assert.True(t, store.IsConflict(err))

	// The loser must not have overwritten the winner.
	rec, err := st.GetActive("abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", rec.TargetURL)
}

func TestCreateActive_RevivesReclaimedCode(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com/old", true)
	require.NoError(t, err)
	require.NoError(t, st.RecordAccess("abc123"))
	require.NoError(t, st.SetNeverExpires("abc123", true))
	require.NoError(t, st.Deactivate("abc123"))

	clk.Advance(time.Hour)
	rec, err := st.CreateActive("abc123", "https://example.com/new", false)
	require.NoError(t, err)

	// History from the previous life of the code is gone.
	assert.Equal(t, "https://example.com/new", rec.TargetURL)
	assert.Equal(t, int64(0), rec.ClickCount)
	assert.False(t, rec.NeverExpires)
	assert.False(t, rec.Monetize)
	assert.True(t, rec.Active)
	assert.True(t, rec.CreatedAt.Equal(clk.Now()))
}

func TestGetActive(t *testing.T) {
	st, _, _ := newTestStore(t)

	_, err := st.GetActive("nope")
	assert.True(t, store.IsNotFound(err))

	_, err = st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)

	rec, err := st.GetActive("abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", rec.TargetURL)

	// Reclaimed codes are indistinguishable from unknown ones.
	require.NoError(t, st.Deactivate("abc123"))
	_, err = st.GetActive("abc123")
	assert.True(t, store.IsNotFound(err))
}

func TestRecordAccess_IncrementsAndRefreshes(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)
	created := clk.Now()

	for i := 1; i <= 6; i++ {
		clk.Advance(time.Minute)
		require.NoError(t, st.RecordAccess("abc123"))

		rec, err := st.GetActive("abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(i), rec.ClickCount)
		assert.True(t, rec.LastAccessAt.Equal(clk.Now()))
		assert.True(t, !rec.LastAccessAt.Before(created))
	}
}

func TestRecordAccess_NotFoundWhenInactive(t *testing.T) {
	st, _, _ := newTestStore(t)

	assert.True(t, store.IsNotFound(st.RecordAccess("nope")))

	_, err := st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)
	require.NoError(t, st.Deactivate("abc123"))
	assert.True(t, store.IsNotFound(st.RecordAccess("abc123")))
}

func TestFlagToggles(t *testing.T) {
	st, _, _ := newTestStore(t)

	assert.True(t, store.IsNotFound(st.SetNeverExpires("nope", true)))
	assert.True(t, store.IsNotFound(st.SetMonetize("nope", true)))
	assert.True(t, store.IsNotFound(st.Deactivate("nope")))

	_, err := st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)

	require.NoError(t, st.SetNeverExpires("abc123", true))
	require.NoError(t, st.SetMonetize("abc123", true))

	rec, err := st.GetActive("abc123")
	require.NoError(t, err)
	assert.True(t, rec.NeverExpires)
	assert.True(t, rec.Monetize)
}

func TestListAll_NewestFirst(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("first0", "https://example.com/1", false)
	require.NoError(t, err)
	clk.Advance(time.Hour)
	_, err = st.CreateActive("second", "https://example.com/2", false)
	require.NoError(t, err)

	records, err := st.ListAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Code)
	assert.Equal(t, "first0", records[1].Code)
}

func TestGetStats(t *testing.T) {
	st, _, _ := newTestStore(t)

	_, err := st.CreateActive("aaa111", "https://example.com/a", false)
	require.NoError(t, err)
	_, err = st.CreateActive("bbb222", "https://example.com/b", false)
	require.NoError(t, err)
	require.NoError(t, st.RecordAccess("aaa111"))
	require.NoError(t, st.RecordAccess("aaa111"))
	require.NoError(t, st.RecordAccess("bbb222"))
	require.NoError(t, st.Deactivate("bbb222"))

	stats, err := st.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalLinks)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.Equal(t, int64(1), stats.ActiveLinks)
	assert.Equal(t, int64(1), stats.Reclaimable)
}

func TestCodeInUse(t *testing.T) {
	st, _, _ := newTestStore(t)

	inUse, err := st.CodeInUse("abc123")
	require.NoError(t, err)
	assert.False(t, inUse)

	_, err = st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)
	inUse, err = st.CodeInUse("abc123")
	require.NoError(t, err)
	assert.True(t, inUse)

	// An inactive row does not hold the code.
	require.NoError(t, st.Deactivate("abc123"))
	inUse, err = st.CodeInUse("abc123")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestRecycleOldestInactive(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.RecycleOldestInactive("https://example.com/x", false)
	assert.True(t, store.IsNotFound(err), "empty pool reports not found")

	_, err = st.CreateActive("older0", "https://example.com/1", false)
	require.NoError(t, err)
	clk.Advance(time.Hour)
	_, err = st.CreateActive("newer0", "https://example.com/2", false)
	require.NoError(t, err)
	require.NoError(t, st.Deactivate("older0"))
	require.NoError(t, st.Deactivate("newer0"))

	rec, err := st.RecycleOldestInactive("https://example.com/x", true)
	require.NoError(t, err)
	assert.Equal(t, "older0", rec.Code, "longest-idle code is revived first")
	assert.Equal(t, "https://example.com/x", rec.TargetURL)
	assert.Equal(t, int64(0), rec.ClickCount)
	assert.True(t, rec.Monetize)
	assert.True(t, rec.Active)
}

func TestSweep_ReclaimsStaleOnly(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("stale0", "https://example.com/1", false)
	require.NoError(t, err)
	_, err = st.CreateActive("pinned", "https://example.com/2", false)
	require.NoError(t, err)
	require.NoError(t, st.SetNeverExpires("pinned", true))

	clk.Advance(31 * 24 * time.Hour)
	_, err = st.CreateActive("fresh0", "https://example.com/3", false)
	require.NoError(t, err)

	reclaimed, err := st.Sweep(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale0"}, reclaimed)

	_, err = st.GetActive("stale0")
	assert.True(t, store.IsNotFound(err))
	_, err = st.GetActive("pinned")
	assert.NoError(t, err, "never-expires codes survive any idle span")
	_, err = st.GetActive("fresh0")
	assert.NoError(t, err)
}

func TestSweep_RecentAccessWins(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)

	clk.Advance(31 * 24 * time.Hour)
	require.NoError(t, st.RecordAccess("abc123"))

	reclaimed, err := st.Sweep(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Empty(t, reclaimed, "an access completed before the sweep must be observed")

	rec, err := st.GetActive("abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ClickCount)
}

func TestSweep_ThenReuse(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com/old", false)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.RecordAccess("abc123"))
	}

	clk.Advance(31 * 24 * time.Hour)
	reclaimed, err := st.Sweep(30 * 24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"abc123"}, reclaimed)

	// The exact code is immediately reusable with a clean history.
	rec, err := st.CreateActive("abc123", "https://example.com/new", false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.ClickCount)
	assert.Equal(t, "https://example.com/new", rec.TargetURL)
}

func TestSweep_ThresholdChangeOnlyAffectsFutureSweeps(t *testing.T) {
	st, clk, _ := newTestStore(t)

	_, err := st.CreateActive("abc123", "https://example.com", false)
	require.NoError(t, err)
	created := clk.Now()

	clk.Advance(10 * 24 * time.Hour)
	reclaimed, err := st.Sweep(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Empty(t, reclaimed)

	// Tightening the threshold reclaims on the next sweep without
	// having touched any stored timestamp.
	rec, err := st.GetActive("abc123")
	require.NoError(t, err)
	assert.True(t, rec.LastAccessAt.Equal(created))

	reclaimed, err = st.Sweep(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, reclaimed)
}
