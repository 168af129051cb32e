package gacha

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/group"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID = "11111111-2222-3333-4444-555555555555"

// setupGachaTest 为每个测试准备独立的内存数据库和确定的随机源
func setupGachaTest(t *testing.T) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	database.DB = db

	require.NoError(t, dish.PrimeDB())
	require.NoError(t, group.PrimeDB())
	require.NoError(t, stats.PrimeDB())
	require.NoError(t, PrimeDB())
	require.NoError(t, stats.Configure("UTC"))

	Configure("weighted_item", 0)
	SetRandomSource(NewSeededSource(1))
	t.Cleanup(func() {
		Configure("weighted_item", 0)
		SetRandomSource(DefaultSource())
	})
}

// seedGroupWithDishes 创建一个群组并放入指定稀有度的餐厅，返回群组ID和餐厅ID
func seedGroupWithDishes(t *testing.T, rarities ...dish.Rarity) (uint, []uint) {
	t.Helper()
	g, err := group.CreateGroup(testUserID, group.CreateGroupInput{Name: "午餐候选"})
	require.NoError(t, err)

	dishIDs := make([]uint, 0, len(rarities))
	for i, r := range rarities {
		d := dish.Dish{
			UserID: testUserID,
			Name:   fmt.Sprintf("餐厅%d", i+1),
			Rarity: r,
		}
		require.NoError(t, database.DB.Create(&d).Error)
		require.NoError(t, group.AddDish(g.ID, d.ID, testUserID))
		dishIDs = append(dishIDs, d.ID)
	}
	return g.ID, dishIDs
}

func TestDrawRejectsInvalidGroup(t *testing.T) {
	setupGachaTest(t)

	_, err := DrawDish(testUserID, 0)
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestDrawEmptyGroup(t *testing.T) {
	setupGachaTest(t)
	gid, _ := seedGroupWithDishes(t)

	_, err := DrawDish(testUserID, gid)
	assert.ErrorIs(t, err, ErrNoCandidates)

	// 不存在的群组与空群组等价
	_, err = DrawDish(testUserID, gid+100)
	assert.ErrorIs(t, err, ErrNoCandidates)

	// 失败的抽卡不留下任何事件和统计
	var count int64
	require.NoError(t, database.DB.Model(&Draw{}).Count(&count).Error)
	assert.Zero(t, count)
	s, err := stats.GetUserStats(testUserID)
	require.NoError(t, err)
	assert.Zero(t, s.TotalDraws)
}

func TestDrawEndToEnd(t *testing.T) {
	setupGachaTest(t)
	gid, dishIDs := seedGroupWithDishes(t, dish.RarityCommon, dish.RarityLegend)

	result, err := DrawDish(testUserID, gid)
	require.NoError(t, err)
	assert.Contains(t, dishIDs, result.Dish.ID)
	assert.Equal(t, gid, result.GroupID)
	assert.Equal(t, unlimitedRemaining, result.Remaining)
	assert.Equal(t, result.Dish.Rarity, result.Rarity)

	// 事件日志里恰好一条记录，带有群组弱引用
	history, err := GetHistory(testUserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Dish.ID, history[0].DishID)
	require.NotNil(t, history[0].GroupID)
	assert.Equal(t, gid, *history[0].GroupID)
	assert.Contains(t, history[0].CurrentGroupIDs, gid)

	// 统计与事件日志在同一事务中写入，保持一致
	totals, err := GetTotals(testUserID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.TotalDraws)
	require.NotNil(t, totals.MostFrequent)
	assert.Equal(t, result.Dish.ID, totals.MostFrequent.Dish.ID)

	s, err := stats.GetUserStats(testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalDraws)
	assert.Equal(t, 1, s.UniqueDishesCount)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestDrawSkipsDeletedDishes(t *testing.T) {
	setupGachaTest(t)
	gid, dishIDs := seedGroupWithDishes(t, dish.RarityCommon, dish.RarityLegend)

	// 软删除legend餐厅后它不应再出现在候选池中
	require.NoError(t, dish.DeleteDish(dishIDs[1], testUserID))
	for i := 0; i < 50; i++ {
		result, err := DrawDish(testUserID, gid)
		require.NoError(t, err)
		assert.Equal(t, dishIDs[0], result.Dish.ID)
	}
}

func TestDrawCountsUniqueDishesOnce(t *testing.T) {
	setupGachaTest(t)
	gid, _ := seedGroupWithDishes(t, dish.RarityCommon)

	for i := 0; i < 3; i++ {
		_, err := DrawDish(testUserID, gid)
		require.NoError(t, err)
	}

	s, err := stats.GetUserStats(testUserID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalDraws)
	assert.Equal(t, 1, s.UniqueDishesCount)
}

func TestHistorySurvivesGroupDeletion(t *testing.T) {
	setupGachaTest(t)
	gid, _ := seedGroupWithDishes(t, dish.RarityCommon)

	_, err := DrawDish(testUserID, gid)
	require.NoError(t, err)

	// 删除群组不触碰抽卡历史，弱引用保持原值
	require.NoError(t, group.DeleteGroup(gid, testUserID))

	history, err := GetHistory(testUserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].GroupID)
	assert.Equal(t, gid, *history[0].GroupID)
	assert.Empty(t, history[0].CurrentGroupIDs)

	// 按群组过滤的统计依据事件自身的group_id，仍然计入
	totals, err := GetTotals(testUserID, &gid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.TotalDraws)
}

func TestTotalsTieBreakIsDeterministic(t *testing.T) {
	setupGachaTest(t)
	gid, dishIDs := seedGroupWithDishes(t, dish.RarityCommon, dish.RarityCommon)

	// 两家餐厅各抽中两次，并列时取ID最小的一家
	for _, id := range []uint{dishIDs[1], dishIDs[0], dishIDs[1], dishIDs[0]} {
		event := Draw{UserID: testUserID, GroupID: &gid, DishID: id, Rarity: dish.RarityCommon}
		require.NoError(t, database.DB.Create(&event).Error)
	}

	for i := 0; i < 5; i++ {
		totals, err := GetTotals(testUserID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), totals.TotalDraws)
		require.NotNil(t, totals.MostFrequent)
		assert.Equal(t, dishIDs[0], totals.MostFrequent.Dish.ID)
		assert.Equal(t, int64(2), totals.MostFrequent.Count)
	}
}

func TestDailyLimit(t *testing.T) {
	setupGachaTest(t)
	gid, _ := seedGroupWithDishes(t, dish.RarityCommon)

	Configure("weighted_item", 2)
	SetRandomSource(NewSeededSource(1))

	result, err := DrawDish(testUserID, gid)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Remaining)

	result, err = DrawDish(testUserID, gid)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Remaining)

	_, err = DrawDish(testUserID, gid)
	assert.ErrorIs(t, err, ErrDailyLimitReached)
}

func TestDrawDishVanishedRollsBack(t *testing.T) {
	setupGachaTest(t)
	gid, dishIDs := seedGroupWithDishes(t, dish.RarityCommon)

	// 在抽取和复核之间把餐厅硬删除，模拟与删除操作的并发竞争
	afterSelect = func(tx *gorm.DB, selected Candidate) {
		require.NoError(t, tx.Unscoped().Delete(&dish.Dish{}, selected.DishID).Error)
	}
	t.Cleanup(func() { afterSelect = nil })

	_, err := DrawDish(testUserID, gid)
	assert.ErrorIs(t, err, ErrDishVanished)

	// 整个事务回滚：不留事件、不动统计，餐厅本身也恢复原状
	var count int64
	require.NoError(t, database.DB.Model(&Draw{}).Count(&count).Error)
	assert.Zero(t, count)
	s, err := stats.GetUserStats(testUserID)
	require.NoError(t, err)
	assert.Zero(t, s.TotalDraws)
	_, err = dish.GetDish(dishIDs[0])
	assert.NoError(t, err)

	// 竞争窗口消失后同一次抽卡可以整体重试成功
	afterSelect = nil
	result, err := DrawDish(testUserID, gid)
	require.NoError(t, err)
	assert.Equal(t, dishIDs[0], result.Dish.ID)
}

func TestHistoryHidesDeletedDishes(t *testing.T) {
	setupGachaTest(t)
	gid, dishIDs := seedGroupWithDishes(t, dish.RarityCommon)

	_, err := DrawDish(testUserID, gid)
	require.NoError(t, err)

	require.NoError(t, dish.DeleteDish(dishIDs[0], testUserID))

	history, err := GetHistory(testUserID)
	require.NoError(t, err)
	assert.Empty(t, history)

	// 汇总里的最常抽中餐厅也只看仍然存在的餐厅
	totals, err := GetTotals(testUserID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.TotalDraws)
	assert.Nil(t, totals.MostFrequent)
}
