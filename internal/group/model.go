package group

import (
	"time"

	"gorm.io/gorm"
)

// Group 定义了餐厅群组的数据结构
type Group struct {
	gorm.Model

	// UserID 是创建者的UUID，只有创建者可以修改或删除群组
	UserID string `gorm:"index;type:varchar(36);not null" json:"user_id"`

	// Name 是群组名称
	Name string `gorm:"not null" json:"name"`

	// Slug 是URL友好的短名
	Slug string `json:"slug"`

	// Description 是群组描述
	Description string `json:"description"`

	// IsPublic 为true时群组对其他用户可见、可收藏、可抽取
	IsPublic bool `gorm:"default:false" json:"is_public"`
}

// DishGroup 是餐厅与群组的多对多成员关系
// (dish_id, group_id) 组合必须唯一；关系行不做软删除，移除即物理删除
type DishGroup struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	DishID    uint      `gorm:"uniqueIndex:idx_dish_group;not null" json:"dish_id"`
	GroupID   uint      `gorm:"uniqueIndex:idx_dish_group;not null" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedGroup 记录用户收藏的他人公开群组
// (user_id, group_id) 组合必须唯一
type SavedGroup struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_saved_group;type:varchar(36);not null" json:"user_id"`
	GroupID   uint      `gorm:"uniqueIndex:idx_saved_group;not null" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}
