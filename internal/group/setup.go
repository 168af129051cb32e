package group

import (
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
)

// PrimeDB 负责初始化group模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Group{}, &DishGroup{}, &SavedGroup{}); err != nil {
		return fmt.Errorf("无法迁移group相关表: %w", err)
	}
	fmt.Println("Group数据库表迁移成功。")
	return nil
}
