package gacha

import (
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
)

// PrimeDB 负责初始化gacha模块的数据库表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Draw{}); err != nil {
		return fmt.Errorf("无法迁移draw表: %w", err)
	}
	fmt.Println("Gacha数据库表迁移成功。")
	return nil
}
