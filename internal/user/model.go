package user

import (
	"time"

	"gorm.io/gorm"
)

// User 定义了用户账号的持久化模型
type User struct {
	// UUID 是用户的主键，注册时生成
	UUID string `gorm:"primarykey;type:varchar(36)" json:"uuid"`

	// Name 是显示名称
	Name string `gorm:"not null" json:"name"`

	// Email 是登录凭证，全局唯一
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// PasswordHash 是bcrypt哈希后的密码，绝不对外输出
	PasswordHash string `gorm:"not null" json:"-"`

	// AvatarURL 指向用户头像
	AvatarURL string `json:"avatar_url"`

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
