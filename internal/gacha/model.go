package gacha

import (
	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"gorm.io/gorm"
)

// Draw 定义了单次抽卡事件的数据结构
// 记录一经写入即不可变，正常业务中只追加、不更新、不删除，
// 构成可审计的抽卡日志
type Draw struct {
	gorm.Model

	// UserID 是抽卡用户的UUID
	UserID string `gorm:"index;type:varchar(36);not null" json:"user_id"`

	// GroupID 是抽卡时的目标群组
	// 这是一个弱引用：没有外键约束，群组被删除后保持原值悬空，
	// 以保证历史日志的完整性
	GroupID *uint `gorm:"index" json:"group_id"`

	// DishID 是抽中的餐厅
	DishID uint `gorm:"index;not null" json:"dish_id"`

	// Rarity 是抽中时餐厅的稀有度快照
	// 之后餐厅稀有度的变化不影响已有记录
	Rarity dish.Rarity `gorm:"type:varchar(16);not null" json:"rarity"`
}
