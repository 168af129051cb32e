package gacha

import (
	"errors"
	"fmt"
	"time"

	"github.com/yctsai/dish-gacha-backend/internal/dish"
	"github.com/yctsai/dish-gacha-backend/internal/platform/database"
	"github.com/yctsai/dish-gacha-backend/internal/stats"
	"gorm.io/gorm"
)

// --- 服务层错误 ---
// 每种错误对应一个稳定的错误码，前端据此区分“没得抽”和“请重试”

var (
	// ErrNoCandidates 表示目标群组中没有任何餐厅可供抽取
	// 不存在的群组与空群组等价，都返回这个错误
	ErrNoCandidates = errors.New("此群组中没有餐厅可供抽取")
	// ErrDishVanished 表示抽中的餐厅在事务提交前被并发删除
	// 调用方可以整体重试一次抽卡
	ErrDishVanished = errors.New("抽中的餐厅已不存在，请重试")
	// ErrInvalidGroup 表示群组ID不合法，在任何事务开启前就会被拒绝
	ErrInvalidGroup = errors.New("无效的群组ID")
	// ErrDailyLimitReached 表示已达到每日抽卡上限
	ErrDailyLimitReached = errors.New("每日抽卡次数已达上限")
)

// --- 模块级配置 ---

var (
	selector Selector     = WeightedItemSelector{}
	rng      RandomSource = DefaultSource()
	// dailyLimit 为0时不限制每日抽卡次数
	dailyLimit int
)

// unlimitedRemaining 是不限量时返回给前端的剩余次数占位值
const unlimitedRemaining = 9999

// Configure 根据配置选定抽取策略和每日限额
// 应该在应用启动时且仅调用一次
func Configure(strategy string, limit int) {
	selector = NewSelector(strategy)
	dailyLimit = limit
	fmt.Printf("抽卡模块已配置: 策略=%T, 每日限额=%d\n", selector, limit)
}

// SetRandomSource 替换抽卡使用的随机源，仅测试使用
func SetRandomSource(r RandomSource) {
	rng = r
}

// afterSelect 在抽取和写入前复核之间被调用，仅测试使用，
// 用于在事务内模拟抽中餐厅被并发删除的窗口
var afterSelect func(tx *gorm.DB, selected Candidate)

// --- DTO ---

// DrawResultDTO 是一次成功抽卡返回的数据包
type DrawResultDTO struct {
	Dish      dish.Dish   `json:"dish"`
	Rarity    dish.Rarity `json:"rarity"`
	GroupID   uint        `json:"group_id"`
	Remaining int         `json:"remaining"`
}

// HistoryEntryDTO 是抽卡历史中的一条记录
type HistoryEntryDTO struct {
	DrawID    uint        `json:"draw_id"`
	CreatedAt time.Time   `json:"created_at"`
	DishID    uint        `json:"dish_id"`
	Name      string      `json:"name"`
	ImageURL  string      `json:"image_url"`
	Rarity    dish.Rarity `json:"rarity"`
	// GroupID 是抽卡时的群组弱引用，群组被删除后依然保留
	GroupID *uint `json:"group_id"`
	// CurrentGroupIDs 是该餐厅当前所属的群组，随成员关系变化
	CurrentGroupIDs []uint `json:"current_group_ids"`
}

// MostFrequentDTO 是抽中次数最多的餐厅及其次数
type MostFrequentDTO struct {
	Dish  dish.Dish `json:"dish"`
	Count int64     `json:"count"`
}

// TotalsDTO 是抽卡统计的汇总结果
type TotalsDTO struct {
	TotalDraws   int64            `json:"total_draws"`
	MostFrequent *MostFrequentDTO `json:"most_frequent"`
}

// --- 核心服务 ---

// DrawDish 为用户在指定群组中执行一次抽卡
//
// 候选池读取、抽取、事件写入和统计更新在同一个数据库事务中完成。
// 写入前会在事务内复核抽中餐厅仍然存在；复核失败时整个事务回滚，
// 返回可重试的ErrDishVanished。SQLite下写事务天然串行；PostgreSQL
// 默认read committed隔离级别下这是一个尽力而为的保证，复核通过后
// 的极小窗口内仍可能与删除并发，此时软删除标记会让历史查询自然跳过。
func DrawDish(userID string, groupID uint) (*DrawResultDTO, error) {
	if groupID == 0 {
		return nil, ErrInvalidGroup
	}

	// 每日限额检查（限额为0时关闭，但计数逻辑保留用于remaining展示）
	todayCount, err := DailyDrawCount(userID)
	if err != nil {
		return nil, err
	}
	if dailyLimit > 0 && todayCount >= int64(dailyLimit) {
		return nil, ErrDailyLimitReached
	}

	var result DrawResultDTO
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// 1. 读取候选池：群组当前的全部成员，按餐厅ID升序的稳定顺序
		// 不存在的群组在这里自然表现为空池
		pool, err := loadPool(tx, groupID)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return ErrNoCandidates
		}

		// 2. 执行抽取
		selected, err := selector.Select(pool, rng)
		if err != nil {
			return err
		}

		if afterSelect != nil {
			afterSelect(tx, selected)
		}

		// 3. 写入前复核抽中的餐厅仍然存在
		var d dish.Dish
		if err := tx.First(&d, selected.DishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDishVanished
			}
			return fmt.Errorf("无法复核抽中的餐厅: %w", err)
		}

		// 4. 判断是否是用户第一次抽中这家餐厅（图鉴收集数）
		var priorCount int64
		if err := tx.Model(&Draw{}).Where("user_id = ? AND dish_id = ?", userID, d.ID).Count(&priorCount).Error; err != nil {
			return fmt.Errorf("无法统计历史抽取次数: %w", err)
		}

		// 5. 追加不可变的抽卡事件
		gid := groupID
		event := Draw{
			UserID:  userID,
			GroupID: &gid,
			DishID:  d.ID,
			Rarity:  selected.Rarity,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("无法写入抽卡记录: %w", err)
		}

		// 6. 同一事务内更新用户统计，保证total_draws与事件日志一致
		if err := stats.ApplyActivityTx(tx, userID, true, priorCount == 0); err != nil {
			return err
		}

		result = DrawResultDTO{
			Dish:    d,
			Rarity:  selected.Rarity,
			GroupID: groupID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if dailyLimit > 0 {
		result.Remaining = dailyLimit - int(todayCount) - 1
	} else {
		result.Remaining = unlimitedRemaining
	}
	return &result, nil
}

// loadPool 读取群组当前的候选池
// 每次抽卡都重新读取，群组成员的变化立即生效，不做任何缓存
func loadPool(tx *gorm.DB, groupID uint) ([]Candidate, error) {
	var pool []Candidate
	err := tx.Table("dishes").
		Select("dishes.id as dish_id, dishes.rarity as rarity").
		Joins("JOIN dish_groups ON dish_groups.dish_id = dishes.id").
		Where("dish_groups.group_id = ?", groupID).
		Where("dishes.deleted_at IS NULL").
		Order("dishes.id asc").
		Scan(&pool).Error
	if err != nil {
		return nil, fmt.Errorf("无法读取候选池: %w", err)
	}
	return pool, nil
}

// DailyDrawCount 返回用户今天（固定时区）已抽卡的次数
func DailyDrawCount(userID string) (int64, error) {
	dayStart := stats.Today()
	var count int64
	err := database.DB.Model(&Draw{}).
		Where("user_id = ? AND created_at >= ?", userID, dayStart).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("无法统计今日抽卡次数: %w", err)
	}
	return count, nil
}

// GetHistory 返回用户的抽卡历史，按时间倒序，不分页
// 每次查询都反映最新状态；餐厅被删除后对应的历史条目不再展示
func GetHistory(userID string) ([]HistoryEntryDTO, error) {
	type historyRow struct {
		DrawID    uint
		CreatedAt time.Time
		DishID    uint
		Name      string
		ImageURL  string
		Rarity    dish.Rarity
		GroupID   *uint
	}
	var rows []historyRow
	err := database.DB.Table("draws").
		Select("draws.id as draw_id, draws.created_at, draws.dish_id, dishes.name, dishes.image_url, draws.rarity, draws.group_id").
		Joins("JOIN dishes ON dishes.id = draws.dish_id AND dishes.deleted_at IS NULL").
		Where("draws.user_id = ? AND draws.deleted_at IS NULL", userID).
		Order("draws.created_at desc, draws.id desc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询抽卡历史: %w", err)
	}

	entries := make([]HistoryEntryDTO, 0, len(rows))
	if len(rows) == 0 {
		return entries, nil
	}

	// 取回这些餐厅当前的群组成员关系
	dishIDs := make([]uint, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	for _, r := range rows {
		if !seen[r.DishID] {
			seen[r.DishID] = true
			dishIDs = append(dishIDs, r.DishID)
		}
	}
	type membershipRow struct {
		DishID  uint
		GroupID uint
	}
	var memberships []membershipRow
	err = database.DB.Table("dish_groups").
		Select("dish_id, group_id").
		Where("dish_id IN ?", dishIDs).
		Scan(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("无法查询群组成员关系: %w", err)
	}
	groupsByDish := make(map[uint][]uint, len(dishIDs))
	for _, m := range memberships {
		groupsByDish[m.DishID] = append(groupsByDish[m.DishID], m.GroupID)
	}

	for _, r := range rows {
		entries = append(entries, HistoryEntryDTO{
			DrawID:          r.DrawID,
			CreatedAt:       r.CreatedAt,
			DishID:          r.DishID,
			Name:            r.Name,
			ImageURL:        r.ImageURL,
			Rarity:          r.Rarity,
			GroupID:         r.GroupID,
			CurrentGroupIDs: groupsByDish[r.DishID],
		})
	}
	return entries, nil
}

// GetTotals 返回用户的抽卡汇总，可选按群组过滤
// 过滤依据是事件自身记录的group_id弱引用，因此即使餐厅之后被移出
// 群组，历史抽取仍然计入该群组的统计
func GetTotals(userID string, groupID *uint) (*TotalsDTO, error) {
	base := database.DB.Model(&Draw{}).Where("user_id = ?", userID)
	if groupID != nil {
		base = base.Where("group_id = ?", *groupID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("无法统计抽卡总数: %w", err)
	}

	totals := &TotalsDTO{TotalDraws: total}
	if total == 0 {
		return totals, nil
	}

	// 抽中次数最多的餐厅；并列时取餐厅ID最小的一个，保证结果确定
	type frequentRow struct {
		DishID uint
		Count  int64
	}
	var row frequentRow
	query := database.DB.Model(&Draw{}).
		Select("draws.dish_id as dish_id, count(*) as count").
		Joins("JOIN dishes ON dishes.id = draws.dish_id AND dishes.deleted_at IS NULL").
		Where("draws.user_id = ?", userID)
	if groupID != nil {
		query = query.Where("draws.group_id = ?", *groupID)
	}
	err := query.Group("draws.dish_id").
		Order("count desc, draws.dish_id asc").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("无法统计最常抽中的餐厅: %w", err)
	}
	if row.DishID == 0 {
		return totals, nil
	}

	d, err := dish.GetDish(row.DishID)
	if err != nil {
		if errors.Is(err, dish.ErrDishNotFound) {
			return totals, nil
		}
		return nil, err
	}
	totals.MostFrequent = &MostFrequentDTO{Dish: *d, Count: row.Count}
	return totals, nil
}
