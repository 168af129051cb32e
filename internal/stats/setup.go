package stats

import (
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
)

// PrimeDB 负责初始化stats模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&UserStats{}, &DailyStat{}); err != nil {
		return fmt.Errorf("无法迁移stats相关表: %w", err)
	}
	fmt.Println("Stats数据库表迁移成功。")
	return nil
}
