package sampler

import (
	"math/rand"
	"strings"
)

// 中文大写金额的固定单位栏与数字字符集。单位是背景模板上的印刷字，
// 只有数字需要手写填入。
var (
	CapitalUnits  = []rune("億仟佰拾萬仟佰拾元")
	CapitalDigits = []rune("零壹貳參肆伍陸柒捌玖")
)

// startWeights 让金额更偏向较小位数起笔，以产生真实比例的前导空栏。
var startWeights = []int{1, 1, 1, 1, 2, 3, 4, 5, 5}

// CapitalAmount 生成一笔中文大写金额：每个单位栏要么留空（前导空栏），
// 要么填入一个大写数字。首位数字不为零；仅剩「元」栏时允许零。
type CapitalAmount struct{}

// SampleCells 抽取每栏要手写的数字（0 表示留空栏）以及完整标签。
// 标签沿用既有约定：空栏记作空格加单位，填写栏记作数字加单位。
func (s *CapitalAmount) SampleCells(rng *rand.Rand) (cells []rune, label string) {
	start := weightedIndex(rng, startWeights)

	cells = make([]rune, len(CapitalUnits))
	var b strings.Builder
	for i, unit := range CapitalUnits {
		switch {
		case i < start:
			b.WriteRune(' ')
		case i == start && i < len(CapitalUnits)-1:
			cells[i] = CapitalDigits[1+rng.Intn(len(CapitalDigits)-1)]
			b.WriteRune(cells[i])
		default:
			cells[i] = CapitalDigits[rng.Intn(len(CapitalDigits))]
			b.WriteRune(cells[i])
		}
		b.WriteRune(unit)
	}
	return cells, b.String()
}

// Sample 实现 Sampler，返回完整标签（供混合模式统一调用）。
func (s *CapitalAmount) Sample(rng *rand.Rand) (string, error) {
	_, label := s.SampleCells(rng)
	return label, nil
}

func weightedIndex(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
