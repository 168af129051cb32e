package gacha

import (
	"errors"

	"github.com/yctsai/dish-gacha-backend/internal/dish"
)

// ErrEmptyPool 表示候选池中没有任何餐厅
// 两种抽取策略在空池时的行为完全一致：返回这个错误且不产生任何副作用
var ErrEmptyPool = errors.New("候选池为空")

// Candidate 是一次抽取的候选项
type Candidate struct {
	DishID uint
	Rarity dish.Rarity
}

// tierWeights 是各稀有度的固定抽取权重
// 每个候选项独立贡献其稀有度对应的权重：一池普通餐厅的总权重
// 会随数量线性增长，单个legend并不能垄断结果
var tierWeights = map[dish.Rarity]float64{
	dish.RarityLegend: 40,
	dish.RarityEpic:   30,
	dish.RarityRare:   20,
	dish.RarityCommon: 10,
}

// weightFor 返回候选项稀有度的权重，未知值按common处理
func weightFor(r dish.Rarity) float64 {
	if w, ok := tierWeights[r]; ok {
		return w
	}
	return tierWeights[dish.RarityCommon]
}

// Selector 抽象了从候选池中抽取一项的策略
// 系统演化中出现过两种策略，在构造时通过配置选定其一
type Selector interface {
	Select(pool []Candidate, rng RandomSource) (Candidate, error)
}

// NewSelector 根据配置的策略名构造抽取器
// "fallback_tier" 选择历史策略；其他值（含空串）选择按项加权策略
func NewSelector(strategy string) Selector {
	if strategy == "fallback_tier" {
		return FallbackTierSelector{}
	}
	return WeightedItemSelector{}
}

// WeightedItemSelector 是按项加权抽样策略（最终方案）
//
// 取 r = rng.Float64() * 总权重，按固定稳定顺序遍历候选池逐项扣减，
// 余量首次降到 ≤ 0 的那一项即为结果。由此保证：
//   - 池非空时每一项都有正的被抽中概率
//   - 每一项的期望命中频率正比于其稀有度权重
//   - 任何稀有度都不会饿死其他稀有度的候选项
type WeightedItemSelector struct{}

// Select 执行一次按项加权抽取
func (WeightedItemSelector) Select(pool []Candidate, rng RandomSource) (Candidate, error) {
	if len(pool) == 0 {
		return Candidate{}, ErrEmptyPool
	}

	var totalWeight float64
	for _, c := range pool {
		totalWeight += weightFor(c.Rarity)
	}

	r := rng.Float64() * totalWeight
	for _, c := range pool {
		r -= weightFor(c.Rarity)
		if r <= 0 {
			return c, nil
		}
	}
	// 浮点累加误差可能让余量未能归零，此时取最后一项
	return pool[len(pool)-1], nil
}

// FallbackTierSelector 是先抽稀有度、再在稀有度内均匀抽取的历史策略
//
// 稀有度落空时按固定顺序 common, rare, epic 逐个回退（跳过已抽中的
// 稀有度），legend作为最后的兜底，保证池非空时一定能给出结果。
// 注意回退顺序本身会影响实际分布，这里保持与历史行为一致。
type FallbackTierSelector struct{}

// fallbackOrder 是稀有度落空时的固定回退顺序
var fallbackOrder = []dish.Rarity{dish.RarityCommon, dish.RarityRare, dish.RarityEpic}

// rollOrder 是稀有度掷骰时的固定遍历顺序
var rollOrder = []dish.Rarity{dish.RarityLegend, dish.RarityEpic, dish.RarityRare, dish.RarityCommon}

// Select 执行一次先抽稀有度再回退的抽取
func (FallbackTierSelector) Select(pool []Candidate, rng RandomSource) (Candidate, error) {
	if len(pool) == 0 {
		return Candidate{}, ErrEmptyPool
	}

	// 按稀有度分桶，桶内保持池的稳定顺序
	buckets := make(map[dish.Rarity][]Candidate, len(tierWeights))
	for _, c := range pool {
		r := c.Rarity
		if _, ok := tierWeights[r]; !ok {
			r = dish.RarityCommon
		}
		buckets[r] = append(buckets[r], c)
	}

	// 1. 按权重掷出一个稀有度
	var totalWeight float64
	for _, r := range rollOrder {
		totalWeight += tierWeights[r]
	}
	roll := rng.Float64() * totalWeight
	rolled := rollOrder[len(rollOrder)-1]
	for _, r := range rollOrder {
		roll -= tierWeights[r]
		if roll <= 0 {
			rolled = r
			break
		}
	}

	// 2. 掷中的稀有度没有候选项时，按固定顺序回退
	chosen := rolled
	if len(buckets[chosen]) == 0 {
		for _, r := range fallbackOrder {
			if r == rolled {
				continue
			}
			if len(buckets[r]) > 0 {
				chosen = r
				break
			}
		}
	}
	// legend不在回退序列中，作为最后的兜底
	if len(buckets[chosen]) == 0 {
		chosen = dish.RarityLegend
	}

	candidates := buckets[chosen]
	if len(candidates) == 0 {
		// 池非空时不可能走到这里
		return Candidate{}, ErrEmptyPool
	}

	// 3. 在选中的稀有度内均匀抽取
	idx := int(rng.Float64() * float64(len(candidates)))
	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}
	return candidates[idx], nil
}
