package stats

import (
	"time"

	"gorm.io/gorm"
)

// UserStats 定义了每个用户一行的参与度统计数据
// 行在用户第一次合格活动（登录或抽卡）时惰性创建；
// 计数器只通过SQL原子自增更新，绝不在应用层读-改-写
type UserStats struct {
	// UserID 是用户的UUID，也是本表的主键（每用户一行）
	UserID string `gorm:"primarykey;type:varchar(36)" json:"user_id"`

	// TotalDraws 是用户的累计抽卡次数
	TotalDraws int `json:"total_draws"`

	// CurrentStreak 是当前的连续活跃天数
	CurrentStreak int `json:"current_streak"`

	// TotalLoginDays 是累计活跃天数（每个日历日最多计一次）
	TotalLoginDays int `json:"total_login_days"`

	// LastActiveDate 是最近一次活跃的日历日（固定时区下的零点时刻）
	LastActiveDate *time.Time `json:"last_active_date"`

	// UniqueDishesCount 是用户抽到过的不同餐厅数量（图鉴收集数）
	UniqueDishesCount int `json:"unique_dishes_count"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DailyStat 记录每个日历日的站点访问次数
// Redis中的计数会由后台任务周期性地合并进这张表
type DailyStat struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Date      string    `gorm:"uniqueIndex;type:varchar(10);not null" json:"date"`
	Visits    int64     `gorm:"not null;default:0" json:"visits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
