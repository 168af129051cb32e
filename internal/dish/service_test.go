package dish_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/group"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	ownerID = "aaaaaaaa-0000-0000-0000-000000000001"
	otherID = "aaaaaaaa-0000-0000-0000-000000000002"
)

func setupDishTest(t *testing.T) {
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
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestCreateDishDerivesRarity(t *testing.T) {
	setupDishTest(t)

	d, err := dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:   "鼎泰丰",
		Rating: f64Ptr(4.7),
	})
	require.NoError(t, err)
	assert.Equal(t, dish.RarityLegend, d.Rarity)

	// 显式给出稀有度时不做推导
	d2, err := dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:   "巷口面摊",
		Rating: f64Ptr(4.7),
		Rarity: string(dish.RarityCommon),
	})
	require.NoError(t, err)
	assert.Equal(t, dish.RarityCommon, d2.Rarity)
}

func TestCreateDishRejectsDuplicates(t *testing.T) {
	setupDishTest(t)

	_, err := dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:    "老王牛肉面",
		Address: strPtr("中山路1号"),
		PlaceID: strPtr("place-123"),
	})
	require.NoError(t, err)

	// 相同place_id视为重复
	_, err = dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:    "老王牛肉面（新店名）",
		PlaceID: strPtr("place-123"),
	})
	assert.ErrorIs(t, err, dish.ErrDuplicateDish)

	// 相同名称+地址也视为重复
	_, err = dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:    "老王牛肉面",
		Address: strPtr("中山路1号"),
	})
	assert.ErrorIs(t, err, dish.ErrDuplicateDish)

	// 不同用户的清单互不影响
	_, err = dish.CreateDish(otherID, dish.CreateDishInput{
		Name:    "老王牛肉面",
		Address: strPtr("中山路1号"),
	})
	assert.NoError(t, err)
}

func TestUpdateDishPartialAndOwnership(t *testing.T) {
	setupDishTest(t)

	d, err := dish.CreateDish(ownerID, dish.CreateDishInput{
		Name:   "小笼包王",
		Rating: f64Ptr(3.2),
	})
	require.NoError(t, err)
	require.Equal(t, dish.RarityCommon, d.Rarity)

	// 只更新评分时稀有度保持原值，不会重算
	updated, err := dish.UpdateDish(d.ID, ownerID, dish.UpdateDishInput{
		Rating: f64Ptr(4.9),
	})
	require.NoError(t, err)
	assert.Equal(t, dish.RarityCommon, updated.Rarity)
	require.NotNil(t, updated.Rating)
	assert.InDelta(t, 4.9, *updated.Rating, 0.001)

	_, err = dish.UpdateDish(d.ID, otherID, dish.UpdateDishInput{Name: strPtr("别人的店")})
	assert.ErrorIs(t, err, dish.ErrNotOwner)
}

func TestDeleteDishCleansMemberships(t *testing.T) {
	setupDishTest(t)

	d, err := dish.CreateDish(ownerID, dish.CreateDishInput{Name: "要删除的店"})
	require.NoError(t, err)
	g, err := group.CreateGroup(ownerID, group.CreateGroupInput{Name: "测试群组"})
	require.NoError(t, err)
	require.NoError(t, group.AddDish(g.ID, d.ID, ownerID))

	require.NoError(t, dish.DeleteDish(d.ID, ownerID))

	_, err = dish.GetDish(d.ID)
	assert.ErrorIs(t, err, dish.ErrDishNotFound)
	var memberships int64
	require.NoError(t, database.DB.Table("dish_groups").Where("dish_id = ?", d.ID).Count(&memberships).Error)
	assert.Zero(t, memberships)
}

func TestImportDish(t *testing.T) {
	setupDishTest(t)

	source, err := dish.CreateDish(otherID, dish.CreateDishInput{
		Name:    "网红甜品店",
		Rating:  f64Ptr(4.2),
		Address: strPtr("大安区忠孝东路"),
	})
	require.NoError(t, err)

	copied, created, err := dish.ImportDish(ownerID, source.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, source.ID, copied.ID)
	assert.Equal(t, ownerID, copied.UserID)
	assert.Equal(t, source.Rarity, copied.Rarity)

	// 再次导入同一家店是幂等的，返回已有记录
	again, created, err := dish.ImportDish(ownerID, source.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, copied.ID, again.ID)
}

func TestImportFromGroup(t *testing.T) {
	setupDishTest(t)

	g, err := group.CreateGroup(otherID, group.CreateGroupInput{Name: "共享菜单", IsPublic: true})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		d, err := dish.CreateDish(otherID, dish.CreateDishInput{Name: fmt.Sprintf("共享餐厅%d", i)})
		require.NoError(t, err)
		require.NoError(t, group.AddDish(g.ID, d.ID, otherID))
	}

	// 先自己收录一家重名的，导入时应跳过
	_, err = dish.CreateDish(ownerID, dish.CreateDishInput{Name: "共享餐厅1"})
	require.NoError(t, err)

	imported, skipped, err := dish.ImportFromGroup(ownerID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 1, skipped)
}
