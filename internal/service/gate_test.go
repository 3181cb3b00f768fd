package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Boundaries(t *testing.T) {
	cases := []struct {
		quiz, focus int
		want        Outcome
	}{
		{8, 60, Fail},
		{8, 61, Pass},
		{7, 100, Fail},
		{10, 61, Pass},
		{9, 70, Pass},
		{5, 30, Fail},
		{0, 0, Fail},
		// 越界值只比较不拒绝
		{11, 61, Pass},
		{-1, 500, Fail},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Evaluate(c.quiz, c.focus), "quiz=%d focus=%d", c.quiz, c.focus)
	}
}

func TestEvaluate_ConjunctiveRule(t *testing.T) {
	for quiz := -2; quiz <= 12; quiz++ {
		for focus := 0; focus <= 120; focus += 5 {
			want := quiz > 7 && focus > 60
			assert.Equal(t, want, Evaluate(quiz, focus) == Pass, "quiz=%d focus=%d", quiz, focus)
		}
	}
}

func TestOutcome_Labels(t *testing.T) {
	assert.Equal(t, "On Track", Pass.Label())
	assert.Equal(t, "Needs Intervention", Fail.Label())
	assert.Equal(t, "On Track", Pass.ResponseStatus())
	assert.Equal(t, "Pending Mentor Review", Fail.ResponseStatus())
}
