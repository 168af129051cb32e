package dish

import (
	"errors"
	"fmt"

	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"gorm.io/gorm"
)

// --- 服务层错误 ---

var (
	// ErrDishNotFound 表示目标餐厅不存在
	ErrDishNotFound = errors.New("餐厅不存在")
	// ErrNotOwner 表示调用者不是餐厅的创建者
	ErrNotOwner = errors.New("没有权限操作此餐厅")
	// ErrDuplicateDish 表示用户清单中已存在同一家餐厅
	ErrDuplicateDish = errors.New("餐厅已存在您的清单中")
)

// --- 输入结构 ---

// CreateDishInput 是创建餐厅的输入
type CreateDishInput struct {
	Name         string
	Description  string
	ImageURL     string
	Address      *string
	Lat          *float64
	Lng          *float64
	PlaceID      *string
	Rating       *float64
	ReviewCount  *int
	Phone        *string
	OpeningHours *string
	// Rarity 为空字符串时由Rating推导
	Rarity string
}

// UpdateDishInput 是部分更新的输入
// 每个字段独立地存在或缺失：nil表示“不修改”，而不是“清空”
type UpdateDishInput struct {
	Name         *string
	Description  *string
	ImageURL     *string
	Address      *string
	Lat          *float64
	Lng          *float64
	PlaceID      *string
	Rating       *float64
	ReviewCount  *int
	Phone        *string
	OpeningHours *string
	Rarity       *string
}

// GroupRef 是餐厅所属群组的轻量引用
type GroupRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// DishWithGroups 是列表接口返回的餐厅及其群组信息
type DishWithGroups struct {
	Dish
	Groups []GroupRef `json:"groups"`
}

// --- 服务函数 ---

// CreateDish 创建一条新的餐厅记录
// 若未显式给出稀有度，则由评分推导一次并落库
func CreateDish(userID string, input CreateDishInput) (*Dish, error) {
	// 按 place_id 或 (名称, 地址) 去重
	if existing, err := findDuplicate(userID, input.PlaceID, input.Name, input.Address); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDish, existing.Name)
	}

	rarity := Rarity(input.Rarity)
	if input.Rarity == "" {
		rarity = ClassifyRating(input.Rating)
	}

	d := Dish{
		UserID:       userID,
		Name:         input.Name,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		Address:      input.Address,
		Lat:          input.Lat,
		Lng:          input.Lng,
		PlaceID:      input.PlaceID,
		Rating:       input.Rating,
		ReviewCount:  input.ReviewCount,
		Phone:        input.Phone,
		OpeningHours: input.OpeningHours,
		Rarity:       rarity,
	}
	if err := database.DB.Create(&d).Error; err != nil {
		return nil, fmt.Errorf("无法创建餐厅: %w", err)
	}
	return &d, nil
}

// GetDish 按ID获取一条餐厅记录
func GetDish(id uint) (*Dish, error) {
	var d Dish
	if err := database.DB.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDishNotFound
		}
		return nil, fmt.Errorf("无法查询餐厅: %w", err)
	}
	return &d, nil
}

// ListDishes 返回用户的全部餐厅，附带各自的群组信息，按创建时间倒序
func ListDishes(userID string) ([]DishWithGroups, error) {
	var dishes []Dish
	if err := database.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("无法查询餐厅列表: %w", err)
	}

	result := make([]DishWithGroups, 0, len(dishes))
	if len(dishes) == 0 {
		return result, nil
	}

	ids := make([]uint, len(dishes))
	for i, d := range dishes {
		ids[i] = d.ID
	}

	// 一次性取回所有成员关系，再在内存中归组
	type membershipRow struct {
		DishID uint
		ID     uint
		Name   string
	}
	var rows []membershipRow
	err := database.DB.Table("dish_groups").
		Select("dish_groups.dish_id as dish_id, groups.id as id, groups.name as name").
		Joins("JOIN groups ON groups.id = dish_groups.group_id AND groups.deleted_at IS NULL").
		Where("dish_groups.dish_id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询餐厅的群组信息: %w", err)
	}

	groupsByDish := make(map[uint][]GroupRef, len(dishes))
	for _, r := range rows {
		groupsByDish[r.DishID] = append(groupsByDish[r.DishID], GroupRef{ID: r.ID, Name: r.Name})
	}

	for _, d := range dishes {
		result = append(result, DishWithGroups{Dish: d, Groups: groupsByDish[d.ID]})
	}
	return result, nil
}

// UpdateDish 对一条餐厅记录做部分更新
// 只有输入中显式给出的字段会被修改；稀有度未给出时保持原值，不会重算
func UpdateDish(id uint, userID string, input UpdateDishInput) (*Dish, error) {
	d, err := GetDish(id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Lat != nil {
		updates["lat"] = *input.Lat
	}
	if input.Lng != nil {
		updates["lng"] = *input.Lng
	}
	if input.PlaceID != nil {
		updates["place_id"] = *input.PlaceID
	}
	if input.Rating != nil {
		updates["rating"] = *input.Rating
	}
	if input.ReviewCount != nil {
		updates["review_count"] = *input.ReviewCount
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.OpeningHours != nil {
		updates["opening_hours"] = *input.OpeningHours
	}
	if input.Rarity != nil {
		updates["rarity"] = Rarity(*input.Rarity)
	}

	if len(updates) == 0 {
		return d, nil
	}
	if err := database.DB.Model(d).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("无法更新餐厅: %w", err)
	}
	return GetDish(id)
}

// DeleteDish 删除一条餐厅记录及其群组成员关系
// 抽卡历史中对该餐厅的引用不做级联，由历史查询自行处理
func DeleteDish(id uint, userID string) error {
	d, err := GetDish(id)
	if err != nil {
		return err
	}
	if d.UserID != userID {
		return ErrNotOwner
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM dish_groups WHERE dish_id = ?", id).Error; err != nil {
			return fmt.Errorf("无法清理群组成员关系: %w", err)
		}
		if err := tx.Delete(&Dish{}, id).Error; err != nil {
			return fmt.Errorf("无法删除餐厅: %w", err)
		}
		return nil
	})
}

// ImportDish 把另一位用户的餐厅复制到当前用户的清单中
// 若已存在重复项则直接返回已有记录
func ImportDish(userID string, sourceDishID uint) (*Dish, bool, error) {
	source, err := GetDish(sourceDishID)
	if err != nil {
		return nil, false, err
	}

	existing, err := findDuplicate(userID, source.PlaceID, source.Name, source.Address)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	copied := Dish{
		UserID:       userID,
		Name:         source.Name,
		Description:  source.Description,
		ImageURL:     source.ImageURL,
		Address:      source.Address,
		Lat:          source.Lat,
		Lng:          source.Lng,
		PlaceID:      source.PlaceID,
		Rating:       source.Rating,
		ReviewCount:  source.ReviewCount,
		Phone:        source.Phone,
		OpeningHours: source.OpeningHours,
		Rarity:       source.Rarity,
	}
	if err := database.DB.Create(&copied).Error; err != nil {
		return nil, false, fmt.Errorf("无法导入餐厅: %w", err)
	}
	return &copied, true, nil
}

// ImportFromGroup 把一个群组中的全部餐厅复制到当前用户的清单中
// 返回新建数量和因重复而跳过的数量
func ImportFromGroup(userID string, sourceGroupID uint) (imported int, skipped int, err error) {
	var sources []Dish
	err = database.DB.
		Joins("JOIN dish_groups ON dish_groups.dish_id = dishes.id").
		Where("dish_groups.group_id = ?", sourceGroupID).
		Find(&sources).Error
	if err != nil {
		return 0, 0, fmt.Errorf("无法读取源群组的餐厅: %w", err)
	}

	for _, source := range sources {
		existing, derr := findDuplicate(userID, source.PlaceID, source.Name, source.Address)
		if derr != nil {
			return imported, skipped, derr
		}
		if existing != nil {
			skipped++
			continue
		}
		copied := source
		copied.Model = gorm.Model{}
		copied.UserID = userID
		if cerr := database.DB.Create(&copied).Error; cerr != nil {
			return imported, skipped, fmt.Errorf("无法导入餐厅 %s: %w", source.Name, cerr)
		}
		imported++
	}
	return imported, skipped, nil
}

// findDuplicate 按 place_id 或 (名称, 地址) 查找用户清单中的重复项
func findDuplicate(userID string, placeID *string, name string, address *string) (*Dish, error) {
	// 地址的空值相等判断需要同时兼容SQLite和PostgreSQL，不能依赖IS NOT DISTINCT FROM
	sameNameAddr := database.DB.Where("name = ?", name)
	if address == nil {
		sameNameAddr = sameNameAddr.Where("address IS NULL")
	} else {
		sameNameAddr = sameNameAddr.Where("address = ?", *address)
	}

	query := database.DB.Where("user_id = ?", userID)
	if placeID != nil && *placeID != "" {
		query = query.Where(database.DB.Where("place_id = ?", *placeID).Or(sameNameAddr))
	} else {
		query = query.Where(sameNameAddr)
	}

	var d Dish
	if err := query.First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法检查重复餐厅: %w", err)
	}
	return &d, nil
}
