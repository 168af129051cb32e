package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"github.com/yctsai/dish-gacha-backend/pkg/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- 服务层错误 ---

var (
	// ErrEmailTaken 表示邮箱已被注册
	ErrEmailTaken = errors.New("邮箱已被注册")
	// ErrInvalidCredentials 表示邮箱或密码不正确
	ErrInvalidCredentials = errors.New("邮箱或密码不正确")
	// ErrUserNotFound 表示用户不存在
	ErrUserNotFound = errors.New("用户不存在")
)

// UpdateProfileInput 是资料部分更新的输入，nil表示“不修改”
type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
}

// Register 注册一个新用户，返回用户和登录token
// 邮箱唯一性由数据库唯一索引保证：并发的重复注册不靠先查后插，
// 而是由插入时的唯一约束冲突统一映射为ErrEmailTaken
func Register(name, email, password string) (*User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("无法哈希密码: %w", err)
	}

	u := User{
		UUID:         uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := database.DB.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("无法创建用户: %w", err)
	}

	t, err := token.GenerateToken(u.UUID)
	if err != nil {
		return nil, "", err
	}

	// 注册视为第一次合格活动
	if err := stats.RecordActivity(u.UUID, false, false); err != nil {
		fmt.Printf("警告: 注册后的活动记录失败: %v\n", err)
	}
	return &u, t, nil
}

// Login 校验凭证并签发token；每次登录都会记录一次用户活动
func Login(email, password string) (*User, string, error) {
	var u User
	if err := database.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("无法查询用户: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	t, err := token.GenerateToken(u.UUID)
	if err != nil {
		return nil, "", err
	}

	// 登录活动驱动连击和活跃天数的更新
	if err := stats.RecordActivity(u.UUID, false, false); err != nil {
		fmt.Printf("警告: 登录后的活动记录失败: %v\n", err)
	}
	return &u, t, nil
}

// GetProfile 返回用户资料
func GetProfile(userID string) (*User, error) {
	var u User
	if err := database.DB.Where("uuid = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("无法查询用户: %w", err)
	}
	return &u, nil
}

// UpdateProfile 对用户资料做部分更新
func UpdateProfile(userID string, input UpdateProfileInput) (*User, error) {
	u, err := GetProfile(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := database.DB.Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("无法更新用户资料: %w", err)
	}
	return GetProfile(userID)
}
