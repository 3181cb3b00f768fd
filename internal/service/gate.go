package service

import "intervention_backend/internal/util"

// Outcome 打卡判定结果
type Outcome int

const (
	Fail Outcome = iota
	Pass
)

// 达标阈值（严格大于）
const (
	PassingQuizScore    = 7
	PassingFocusMinutes = 60
)

// Evaluate 判定打卡是否达标，取值范围由请求校验负责
func Evaluate(quizScore, focusMinutes int) Outcome {
	if quizScore > PassingQuizScore && focusMinutes > PassingFocusMinutes {
		return Pass
	}
	return Fail
}

// Label 写入打卡记录的判定结果
func (o Outcome) Label() string {
	if o == Pass {
		return "On Track"
	}
	return "Needs Intervention"
}

func (o Outcome) String() string {
	if o == Pass {
		return "pass"
	}
	return "fail"
}

// ResponseStatus 返回给客户端的状态
func (o Outcome) ResponseStatus() string {
	if o == Pass {
		return util.CheckinOnTrack
	}
	return util.CheckinPendingReview
}
