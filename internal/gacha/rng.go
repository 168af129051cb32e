package gacha

import "math/rand"

// RandomSource 抽象了抽卡使用的均匀随机数来源
// 返回值必须落在 [0, 1) 区间
type RandomSource interface {
	Float64() float64
}

// mathSource 包装math/rand的全局源，并发安全
type mathSource struct{}

func (mathSource) Float64() float64 {
	return rand.Float64()
}

// DefaultSource 返回生产环境使用的随机源
func DefaultSource() RandomSource {
	return mathSource{}
}

// NewSeededSource 返回一个固定种子的随机源，用于可复现的测试和模拟
// 注意返回的源不是并发安全的
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}
