package stats

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"github.com/yctsai/dish-gacha-backend/pkg/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// visitKeyPrefix 是Redis中按日访问计数的键前缀，后接YYYY-MM-DD
const visitKeyPrefix = "visits:"

// flushInterval 是后台任务把Redis计数合并进SQL的周期
const flushInterval = 30 * time.Second

// IncrementVisit 给今天的访问计数加一，返回合并后的总访问量
// 计数先落在Redis，由后台任务周期性合并进daily_stats表
func IncrementVisit() (int64, error) {
	key := visitKeyPrefix + Today().Format("2006-01-02")
	if err := database.RDB.Incr(database.Ctx, key).Err(); err != nil {
		return 0, fmt.Errorf("无法累加访问计数: %w", err)
	}
	return GetTotalVisits()
}

// GetTotalVisits 返回累计总访问量：SQL中已落库的部分加上Redis中尚未合并的部分
func GetTotalVisits() (int64, error) {
	var persisted int64
	err := database.DB.Model(&DailyStat{}).
		Select("COALESCE(SUM(visits), 0)").
		Scan(&persisted).Error
	if err != nil {
		return 0, fmt.Errorf("无法统计访问量: %w", err)
	}

	// Redis不可用时只返回已落库的部分
	keys, err := database.RDB.Keys(database.Ctx, visitKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return persisted, nil
	}
	values, err := database.RDB.MGet(database.Ctx, keys...).Result()
	if err != nil {
		return persisted, nil
	}
	for _, v := range values {
		if s, ok := v.(string); ok {
			if n, perr := strconv.ParseInt(s, 10, 64); perr == nil {
				persisted += n
			}
		}
	}
	return persisted, nil
}

// FlushVisits 把Redis中缓冲的访问计数合并进daily_stats表
// 合并使用 visits = visits + n 的原子上插，杜绝丢失更新
func FlushVisits() error {
	keys, err := database.RDB.Keys(database.Ctx, visitKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("无法扫描访问计数键: %w", err)
	}

	for _, key := range keys {
		// GetSet把计数原子地换成0，期间新到的计数会落在下一轮
		raw, err := database.RDB.GetSet(database.Ctx, key, "0").Result()
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n == 0 {
			continue
		}

		date := key[len(visitKeyPrefix):]
		row := DailyStat{Date: date, Visits: n}
		err = database.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"visits": gorm.Expr("visits + ?", n)}),
		}).Create(&row).Error
		if err != nil {
			// 落库失败时把计数加回Redis，等待下一轮重试
			fmt.Printf("警告: 访问计数落库失败，已退回Redis: %v\n", err)
			database.RDB.IncrBy(database.Ctx, key, n)
			return fmt.Errorf("无法合并访问计数: %w", err)
		}
	}
	return nil
}

// StartVisitFlusher 启动后台任务，周期性地把Redis访问计数合并进SQL
// 收到停机信号时会做最后一次合并再退出
func StartVisitFlusher(handle *lifecycle.Handle) {
	defer handle.Close()

	for {
		if err := handle.Sleep(flushInterval); err != nil {
			// 停机前的最后一次合并
			if ferr := FlushVisits(); ferr != nil {
				fmt.Printf("警告: 停机前的访问计数合并失败: %v\n", ferr)
			}
			fmt.Println("访问计数合并任务已退出。")
			return
		}
		if err := FlushVisits(); err != nil {
			fmt.Printf("警告: 访问计数合并失败，将在下一轮重试: %v\n", err)
		}
	}
}
