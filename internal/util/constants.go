package util

// 打卡结果
const (
	CheckinOnTrack       = "On Track"
	CheckinPendingReview = "Pending Mentor Review"
)

const DefaultAssignedBy = "Mentor"
