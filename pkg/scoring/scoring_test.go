package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   float64
	}{
		{"全部满分", []int{5, 5, 5, 5}, 100},
		{"全部最低分", []int{1, 1, 1}, 20},
		{"混合", []int{5, 4, 3}, 80},
		{"循环小数", []int{5, 5, 4}, 93.33},
		{"单条", []int{3}, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentage(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentage_Errors(t *testing.T) {
	_, err := Percentage(nil)
	assert.ErrorIs(t, err, ErrNoScores)

	_, err = Percentage([]int{5, 6})
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = Percentage([]int{0})
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestAverage(t *testing.T) {
	avg, err := Average([]int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, "4.5", avg.String())
}

func TestSumAndMax(t *testing.T) {
	assert.Equal(t, 12, Sum([]int{5, 4, 3}))
	assert.Equal(t, 15, MaxScore(3))
	assert.Equal(t, 80.0, PercentOf(12, 15))
	assert.Equal(t, 0.0, PercentOf(0, 0))
}

func TestGrade(t *testing.T) {
	assert.Equal(t, GradeExcellent, Grade(90))
	assert.Equal(t, GradeGood, Grade(89.99))
	assert.Equal(t, GradeGood, Grade(75))
	assert.Equal(t, GradeSatisfactory, Grade(60))
	assert.Equal(t, GradeUnsatisfactory, Grade(59.99))
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(80, 80))
	assert.False(t, Passed(79.99, 80))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(66.6666))
}
