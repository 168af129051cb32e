package dish

import (
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
)

// PrimeDB 负责初始化dish模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Dish{}); err != nil {
		return fmt.Errorf("无法迁移dish表: %w", err)
	}
	fmt.Println("Dish数据库表迁移成功。")
	return nil
}
