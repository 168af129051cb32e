package group

import (
	"errors"
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- 服务层错误 ---

var (
	// ErrGroupNotFound 表示目标群组不存在
	ErrGroupNotFound = errors.New("群组不存在")
	// ErrNotOwner 表示调用者不是群组的创建者
	ErrNotOwner = errors.New("没有权限操作此群组")
	// ErrNotPublic 表示群组未公开，不能被收藏
	ErrNotPublic = errors.New("群组未公开")
)

// --- 输入/输出结构 ---

// CreateGroupInput 是创建群组的输入
type CreateGroupInput struct {
	Name        string
	Slug        string
	Description string
	IsPublic    bool
}

// UpdateGroupInput 是部分更新的输入
// 每个字段独立地存在或缺失：nil表示“不修改”
type UpdateGroupInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// GroupView 是列表接口返回的群组及关系标记
type GroupView struct {
	Group
	IsOwner bool `json:"is_owner"`
	IsSaved bool `json:"is_saved"`
}

// ExploreView 是发现页接口返回的公开群组信息
type ExploreView struct {
	Group
	OwnerName   string `json:"owner_name"`
	OwnerAvatar string `json:"owner_avatar"`
	IsOwner     bool   `json:"is_owner"`
	IsSavedByMe bool   `json:"is_saved_by_me"`
	SaveCount   int64  `json:"save_count"`
}

// --- 服务函数 ---

// CreateGroup 创建一个新群组
func CreateGroup(userID string, input CreateGroupInput) (*Group, error) {
	g := Group{
		UserID:      userID,
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		IsPublic:    input.IsPublic,
	}
	if err := database.DB.Create(&g).Error; err != nil {
		return nil, fmt.Errorf("无法创建群组: %w", err)
	}
	return &g, nil
}

// GetGroup 按ID获取群组
func GetGroup(id uint) (*Group, error) {
	var g Group
	if err := database.DB.First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("无法查询群组: %w", err)
	}
	return &g, nil
}

// ListGroups 返回用户创建的群组和收藏的群组，按创建时间倒序
func ListGroups(userID string) ([]GroupView, error) {
	var groups []Group
	err := database.DB.
		Joins("LEFT JOIN saved_groups ON saved_groups.group_id = groups.id AND saved_groups.user_id = ?", userID).
		Where("groups.user_id = ? OR saved_groups.id IS NOT NULL", userID).
		Order("groups.created_at desc").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询群组列表: %w", err)
	}

	// 收藏标记单独取，避免在上面的查询里混入扫描目标以外的列
	var saved []SavedGroup
	if err := database.DB.Where("user_id = ?", userID).Find(&saved).Error; err != nil {
		return nil, fmt.Errorf("无法查询收藏关系: %w", err)
	}
	savedSet := make(map[uint]bool, len(saved))
	for _, s := range saved {
		savedSet[s.GroupID] = true
	}

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, GroupView{
			Group:   g,
			IsOwner: g.UserID == userID,
			IsSaved: savedSet[g.ID],
		})
	}
	return views, nil
}

// Explore 返回所有公开群组，附带群主信息和收藏数
func Explore(userID string) ([]ExploreView, error) {
	var groups []Group
	if err := database.DB.Where("is_public = ?", true).Order("created_at desc").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("无法查询公开群组: %w", err)
	}
	if len(groups) == 0 {
		return []ExploreView{}, nil
	}

	ids := make([]uint, len(groups))
	ownerIDs := make([]string, 0, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
		ownerIDs = append(ownerIDs, g.UserID)
	}

	// 群主信息（user模块的表，这里只做只读join）
	type ownerRow struct {
		UUID      string
		Name      string
		AvatarURL string
	}
	var owners []ownerRow
	if err := database.DB.Table("users").
		Select("uuid, name, avatar_url").
		Where("uuid IN ?", ownerIDs).
		Scan(&owners).Error; err != nil {
		return nil, fmt.Errorf("无法查询群主信息: %w", err)
	}
	ownerByID := make(map[string]ownerRow, len(owners))
	for _, o := range owners {
		ownerByID[o.UUID] = o
	}

	// 收藏数和本人收藏标记
	type countRow struct {
		GroupID uint
		Count   int64
	}
	var counts []countRow
	if err := database.DB.Table("saved_groups").
		Select("group_id, count(*) as count").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("无法统计收藏数: %w", err)
	}
	countByID := make(map[uint]int64, len(counts))
	for _, r := range counts {
		countByID[r.GroupID] = r.Count
	}

	var mySaved []SavedGroup
	if err := database.DB.Where("user_id = ? AND group_id IN ?", userID, ids).Find(&mySaved).Error; err != nil {
		return nil, fmt.Errorf("无法查询收藏关系: %w", err)
	}
	mySavedSet := make(map[uint]bool, len(mySaved))
	for _, s := range mySaved {
		mySavedSet[s.GroupID] = true
	}

	views := make([]ExploreView, 0, len(groups))
	for _, g := range groups {
		owner := ownerByID[g.UserID]
		views = append(views, ExploreView{
			Group:       g,
			OwnerName:   owner.Name,
			OwnerAvatar: owner.AvatarURL,
			IsOwner:     g.UserID == userID,
			IsSavedByMe: mySavedSet[g.ID],
			SaveCount:   countByID[g.ID],
		})
	}
	return views, nil
}

// UpdateGroup 对群组做部分更新
func UpdateGroup(id uint, userID string, input UpdateGroupInput) (*Group, error) {
	g, err := GetGroup(id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}
	if len(updates) == 0 {
		return g, nil
	}
	if err := database.DB.Model(g).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("无法更新群组: %w", err)
	}
	return GetGroup(id)
}

// DeleteGroup 删除群组及其成员关系和收藏关系
// 抽卡历史中的group_id是弱引用，不做级联，历史记录保持原样
func DeleteGroup(id uint, userID string) error {
	g, err := GetGroup(id)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrNotOwner
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&DishGroup{}).Error; err != nil {
			return fmt.Errorf("无法清理群组成员关系: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&SavedGroup{}).Error; err != nil {
			return fmt.Errorf("无法清理收藏关系: %w", err)
		}
		if err := tx.Delete(&Group{}, id).Error; err != nil {
			return fmt.Errorf("无法删除群组: %w", err)
		}
		return nil
	})
}

// AddDish 把一条餐厅加入群组，重复加入是幂等操作
func AddDish(groupID uint, dishID uint, userID string) error {
	g, err := GetGroup(groupID)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrNotOwner
	}
	if _, err := dish.GetDish(dishID); err != nil {
		return err
	}

	membership := DishGroup{DishID: dishID, GroupID: groupID}
	err = database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error
	if err != nil {
		return fmt.Errorf("无法加入群组: %w", err)
	}
	return nil
}

// RemoveDish 把一条餐厅移出群组
func RemoveDish(groupID uint, dishID uint, userID string) error {
	g, err := GetGroup(groupID)
	if err != nil {
		return err
	}
	if g.UserID != userID {
		return ErrNotOwner
	}
	err = database.DB.Where("group_id = ? AND dish_id = ?", groupID, dishID).Delete(&DishGroup{}).Error
	if err != nil {
		return fmt.Errorf("无法移出群组: %w", err)
	}
	return nil
}

// ListDishes 返回群组中的全部餐厅
func ListDishes(groupID uint) ([]dish.Dish, error) {
	if _, err := GetGroup(groupID); err != nil {
		return nil, err
	}
	var dishes []dish.Dish
	err := database.DB.
		Joins("JOIN dish_groups ON dish_groups.dish_id = dishes.id").
		Where("dish_groups.group_id = ?", groupID).
		Order("dishes.id asc").
		Find(&dishes).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询群组餐厅: %w", err)
	}
	return dishes, nil
}

// SaveGroup 收藏一个公开群组，重复收藏是幂等操作
func SaveGroup(userID string, groupID uint) error {
	g, err := GetGroup(groupID)
	if err != nil {
		return err
	}
	if !g.IsPublic && g.UserID != userID {
		return ErrNotPublic
	}

	s := SavedGroup{UserID: userID, GroupID: groupID}
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error; err != nil {
		return fmt.Errorf("无法收藏群组: %w", err)
	}
	return nil
}

// UnsaveGroup 取消收藏
func UnsaveGroup(userID string, groupID uint) error {
	err := database.DB.Where("user_id = ? AND group_id = ?", userID, groupID).Delete(&SavedGroup{}).Error
	if err != nil {
		return fmt.Errorf("无法取消收藏: %w", err)
	}
	return nil
}
