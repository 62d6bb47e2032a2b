// Package scoring 5S 评分计算：每条准则 1–5 分，汇总为百分比与等级。
package scoring

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	MinScore        = 1
	MaxPerCriterion = 5
)

// 评分等级
const (
	GradeExcellent      = "excellent"
	GradeGood           = "good"
	GradeSatisfactory   = "satisfactory"
	GradeUnsatisfactory = "unsatisfactory"
)

var (
	ErrNoScores        = errors.New("没有可计算的评分")
	ErrScoreOutOfRange = errors.New("评分必须在 1 到 5 之间")
)

var (
	twenty  = decimal.NewFromInt(20)
	hundred = decimal.NewFromInt(100)
)

// ValidateScore 校验单条评分
func ValidateScore(s int) error {
	if s < MinScore || s > MaxPerCriterion {
		return ErrScoreOutOfRange
	}
	return nil
}

// ValidateAll 校验全部评分，任一越界即返回错误
func ValidateAll(scores []int) error {
	for _, s := range scores {
		if err := ValidateScore(s); err != nil {
			return err
		}
	}
	return nil
}

// Sum 评分总和
func Sum(scores []int) int {
	total := 0
	for _, s := range scores {
		total += s
	}
	return total
}

// MaxScore n 条准则的满分
func MaxScore(n int) int { return n * MaxPerCriterion }

// Average 精确平均分 sum/N
func Average(scores []int) (decimal.Decimal, error) {
	if len(scores) == 0 {
		return decimal.Zero, ErrNoScores
	}
	if err := ValidateAll(scores); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(int64(Sum(scores))).Div(decimal.NewFromInt(int64(len(scores)))), nil
}

// Percentage 百分比 = 平均分 × 20，保留两位小数
// 全 5 分为 100，全 1 分为 20
func Percentage(scores []int) (float64, error) {
	avg, err := Average(scores)
	if err != nil {
		return 0, err
	}
	pct, _ := avg.Mul(twenty).Round(2).Float64()
	return pct, nil
}

// PercentOf total/max × 100，保留两位小数；max 为 0 时返回 0
func PercentOf(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(int64(total)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(max))).
		Round(2).Float64()
	return pct
}

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

// Grade 按百分比划分等级
func Grade(percent float64) string {
	switch {
	case percent >= 90:
		return GradeExcellent
	case percent >= 75:
		return GradeGood
	case percent >= 60:
		return GradeSatisfactory
	default:
		return GradeUnsatisfactory
	}
}

// Passed 是否达到合格线
func Passed(percent float64, threshold int) bool {
	return percent >= float64(threshold)
}
