package stats

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 为每个测试准备一个独立的内存数据库
func setupTestDB(t *testing.T) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserStats{}, &DailyStat{}))
	database.DB = db
}

// setNow 固定统计模块的当前时间，测试结束后恢复
func setNow(t *testing.T, tm time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return tm }
	t.Cleanup(func() { nowFunc = time.Now })
}

func TestFirstActivityStartsStreak(t *testing.T) {
	setupTestDB(t)
	setNow(t, time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC))

	require.NoError(t, RecordActivity("user-a", false, false))

	s, err := GetUserStats("user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.TotalLoginDays)
	assert.Equal(t, 0, s.TotalDraws)
	require.NotNil(t, s.LastActiveDate)
	assert.True(t, s.LastActiveDate.Equal(Today()), "last_active_date应为当天零点")
}

func TestSameDayActivityIsIdempotent(t *testing.T) {
	setupTestDB(t)
	setNow(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, RecordActivity("user-a", false, false))
	// 同一天内的第二次活动：连击和活跃天数不变，计数器照常自增
	require.NoError(t, RecordActivity("user-a", true, true))
	require.NoError(t, RecordActivity("user-a", true, false))

	s, err := GetUserStats("user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.TotalLoginDays)
	assert.Equal(t, 2, s.TotalDraws)
	assert.Equal(t, 1, s.UniqueDishesCount)
}

func TestConsecutiveDayExtendsStreak(t *testing.T) {
	setupTestDB(t)

	setNow(t, time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC))
	require.NoError(t, RecordActivity("user-a", false, false))

	// 正好相差1个日历日，哪怕只隔了几十分钟
	setNow(t, time.Date(2026, 3, 2, 0, 10, 0, 0, time.UTC))
	require.NoError(t, RecordActivity("user-a", false, false))

	s, err := GetUserStats("user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.TotalLoginDays)
}

func TestGapResetsStreak(t *testing.T) {
	setupTestDB(t)

	setNow(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, RecordActivity("user-a", false, false))
	setNow(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	require.NoError(t, RecordActivity("user-a", false, false))

	// 中断两天后连击重置为1，活跃天数继续累计
	setNow(t, time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, RecordActivity("user-a", false, false))

	s, err := GetUserStats("user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.TotalLoginDays)
}

func TestStatsAreIsolatedPerUser(t *testing.T) {
	setupTestDB(t)
	setNow(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, RecordActivity("user-a", true, true))
	require.NoError(t, RecordActivity("user-b", false, false))

	a, err := GetUserStats("user-a")
	require.NoError(t, err)
	b, err := GetUserStats("user-b")
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalDraws)
	assert.Equal(t, 0, b.TotalDraws)
}

func TestGetUserStatsWithoutRow(t *testing.T) {
	setupTestDB(t)

	s, err := GetUserStats("nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", s.UserID)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 0, s.TotalDraws)
	assert.Nil(t, s.LastActiveDate)
}

func TestStreakAcrossSpringForward(t *testing.T) {
	setupTestDB(t)
	// 美东2026-03-08进入夏令时，当天只有23小时
	require.NoError(t, Configure("America/New_York"))
	t.Cleanup(func() { loc = time.UTC })

	setNow(t, time.Date(2026, 3, 8, 12, 0, 0, 0, loc))
	require.NoError(t, RecordActivity("user-a", false, false))
	setNow(t, time.Date(2026, 3, 9, 12, 0, 0, 0, loc))
	require.NoError(t, RecordActivity("user-a", false, false))

	s, err := GetUserStats("user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.TotalLoginDays)
}

func TestDaysBetweenOnDSTTransitions(t *testing.T) {
	require.NoError(t, Configure("America/New_York"))
	t.Cleanup(func() { loc = time.UTC })

	// 进入夏令时：3月8日只有23小时，仍应算相差1天
	spring1 := time.Date(2026, 3, 8, 12, 0, 0, 0, loc)
	spring2 := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, daysBetween(spring1, spring2))

	// 退出夏令时：10月31日到11月1日有25小时，同样相差1天
	fall1 := time.Date(2026, 10, 31, 12, 0, 0, 0, loc)
	fall2 := time.Date(2026, 11, 1, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, daysBetween(fall1, fall2))
}

func TestDaysBetween(t *testing.T) {
	d1 := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(d1, d2))
	assert.Equal(t, 0, daysBetween(d2, d2))
	assert.Equal(t, -1, daysBetween(d2, d1))
}
