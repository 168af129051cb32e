package dish

import (
	"gorm.io/gorm"
)

// Rarity 定义了餐厅稀有度的枚举类型
type Rarity string

const (
	// RarityCommon 是最低的稀有度，也是缺省值
	RarityCommon Rarity = "common"
	// RarityRare 表示稀有
	RarityRare Rarity = "rare"
	// RarityEpic 表示史诗
	RarityEpic Rarity = "epic"
	// RarityLegend 是最高的稀有度
	RarityLegend Rarity = "legend"
)

// AllRarities 按稀有度从低到高排列
var AllRarities = []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegend}

// IsValidRarity 判断一个字符串是否是合法的稀有度
func IsValidRarity(s string) bool {
	switch Rarity(s) {
	case RarityCommon, RarityRare, RarityEpic, RarityLegend:
		return true
	}
	return false
}

// Dish 定义了数据库中餐厅条目的数据结构
type Dish struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// UserID 是创建者的UUID，只有创建者可以修改或删除
	UserID string `gorm:"index;type:varchar(36);not null" json:"user_id"`

	// Name 是餐厅的显示名称
	Name string `gorm:"not null" json:"name"`

	// Description 是餐厅的描述
	Description string `json:"description"`

	// ImageURL 指向餐厅图片
	ImageURL string `json:"image_url"`

	// Address 是餐厅地址
	Address *string `json:"address"`

	// Lat/Lng 是餐厅的坐标
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`

	// PlaceID 是外部地图服务的地点ID，用于去重
	PlaceID *string `gorm:"index" json:"place_id"`

	// Rating 是0-5的评分，可以缺失
	Rating *float64 `json:"rating"`

	// ReviewCount 是评论数量
	ReviewCount *int `json:"review_count"`

	// Phone 是联系电话
	Phone *string `json:"phone"`

	// OpeningHours 是营业时间描述
	OpeningHours *string `json:"opening_hours"`

	// Rarity 是抽卡权重所使用的稀有度
	// 创建或更新时若未显式给出，会由Rating通过ClassifyRating推导一次；
	// 一经写入即作为抽卡的权威依据，之后Rating的变化不会自动重算
	Rarity Rarity `gorm:"type:varchar(16);not null;default:common" json:"rarity"`
}

// ClassifyRating 根据评分推导稀有度
// 固定阈值：评分 ≥ 4.5 为legend；≥ 4.0 为epic；≥ 3.5 为rare；
// 其余情况（包括评分缺失）为common。纯函数，只在创建/更新补全时使用，
// 抽卡过程中绝不会调用。
func ClassifyRating(rating *float64) Rarity {
	if rating == nil {
		return RarityCommon
	}
	switch {
	case *rating >= 4.5:
		return RarityLegend
	case *rating >= 4.0:
		return RarityEpic
	case *rating >= 3.5:
		return RarityRare
	default:
		return RarityCommon
	}
}
