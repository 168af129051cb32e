package stats

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loc 是所有日界计算使用的固定时区，由Configure设置
// 固定一个时区可以保证连击判定在任何部署环境下都一致
var loc = time.UTC

// nowFunc 返回当前时间，测试中可替换
var nowFunc = time.Now

// Configure 设置统计模块使用的时区
// 应该在应用启动时且仅调用一次
func Configure(timezone string) error {
	if timezone == "" {
		loc = time.UTC
		return nil
	}
	l, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("无法加载统计时区 %s: %w", timezone, err)
	}
	loc = l
	return nil
}

// Today 返回固定时区下今天的零点时刻
// 其他模块（如抽卡的每日限额）也用它来统一日界
func Today() time.Time {
	now := nowFunc().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// daysBetween 计算两个日历日之间相差的天数
// 夏令时切换日只有23或25小时，必须四舍五入而不是截断，
// 否则切换日的次日会被误判为同一天
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(t.Sub(f).Hours() / 24))
}

// ApplyActivityTx 在给定事务中记录一次用户活动，更新连击和计数器
//
// 连击规则（按固定时区的日历日）：
//   - 首次活动：连击置1，活跃天数+1
//   - 同一天再次活动：连击和活跃天数不变
//   - 与上次活跃正好相差1天：连击+1，活跃天数+1
//   - 相差超过1天：连击重置为1，活跃天数+1
//
// 同一天的重复调用对连击和活跃天数是幂等的；isDraw和isNewDish
// 对应的计数器每次合格调用都会自增，且全部使用SQL原子自增。
func ApplyActivityTx(tx *gorm.DB, userID string, isDraw bool, isNewDish bool) error {
	// 1. 惰性创建统计行，已存在时静默跳过
	blank := UserStats{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&blank).Error; err != nil {
		return fmt.Errorf("无法创建用户统计行: %w", err)
	}

	var s UserStats
	if err := tx.Where("user_id = ?", userID).First(&s).Error; err != nil {
		return fmt.Errorf("无法读取用户统计行: %w", err)
	}

	// 2. 处理日界翻转：只有当日期发生变化时才更新连击和活跃天数
	// 更新条件中带上读取到的旧日期，保证并发下同一天的翻转只会生效一次
	todayDate := Today()
	if s.LastActiveDate == nil || daysBetween(s.LastActiveDate.In(loc), todayDate) != 0 {
		newStreak := 1
		if s.LastActiveDate != nil && daysBetween(s.LastActiveDate.In(loc), todayDate) == 1 {
			newStreak = s.CurrentStreak + 1
		}

		rollover := tx.Model(&UserStats{}).Where("user_id = ?", userID)
		if s.LastActiveDate == nil {
			rollover = rollover.Where("last_active_date IS NULL")
		} else {
			rollover = rollover.Where("last_active_date = ?", *s.LastActiveDate)
		}
		err := rollover.Updates(map[string]interface{}{
			"current_streak":   newStreak,
			"total_login_days": gorm.Expr("total_login_days + 1"),
			"last_active_date": todayDate,
		}).Error
		if err != nil {
			return fmt.Errorf("无法更新连击状态: %w", err)
		}
	}

	// 3. 计数器自增
	counters := map[string]interface{}{}
	if isDraw {
		counters["total_draws"] = gorm.Expr("total_draws + 1")
	}
	if isNewDish {
		counters["unique_dishes_count"] = gorm.Expr("unique_dishes_count + 1")
	}
	if len(counters) > 0 {
		if err := tx.Model(&UserStats{}).Where("user_id = ?", userID).Updates(counters).Error; err != nil {
			return fmt.Errorf("无法更新计数器: %w", err)
		}
	}
	return nil
}

// RecordActivity 在独立事务中记录一次用户活动（登录等非抽卡路径使用）
func RecordActivity(userID string, isDraw bool, isNewDish bool) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		return ApplyActivityTx(tx, userID, isDraw, isNewDish)
	})
}

// GetUserStats 返回用户的统计行；尚未创建时返回全零值
func GetUserStats(userID string) (*UserStats, error) {
	var s UserStats
	if err := database.DB.Where("user_id = ?", userID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &UserStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("无法查询用户统计: %w", err)
	}
	return &s, nil
}
