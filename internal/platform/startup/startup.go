package startup

import (
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/gacha"
	"github.com/yctsai/dish-gacha-backend/internal/group"
	"github.com/yctsai/dish-gacha-backend/internal/platform/config"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"github.com/yctsai/dish-gacha-backend/internal/user"
)

// InitializeApplication 是应用首次启动时执行的总入口
// 按依赖顺序迁移各模块的表结构并应用模块配置
func InitializeApplication(cfg *config.Config) error {
	fmt.Println("开始应用初始化...")

	if err := user.PrimeDB(); err != nil {
		return err
	}
	if err := dish.PrimeDB(); err != nil {
		return err
	}
	if err := group.PrimeDB(); err != nil {
		return err
	}
	if err := stats.PrimeDB(); err != nil {
		return err
	}
	if err := gacha.PrimeDB(); err != nil {
		return err
	}

	if err := stats.Configure(cfg.Stats.Timezone); err != nil {
		return err
	}
	gacha.Configure(cfg.Gacha.Strategy, cfg.Gacha.DailyLimit)
	dish.RegisterValidations()

	fmt.Println("应用初始化完成！")
	return nil
}
