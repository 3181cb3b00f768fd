package model

import (
	"time"
)

// StudentStatus 学生状态
type StudentStatus string

const (
	StatusNormal            StudentStatus = "Normal"
	StatusNeedsIntervention StudentStatus = "Needs Intervention"
	StatusRemedial          StudentStatus = "Remedial"
)

// Valid 是否为合法状态
func (s StudentStatus) Valid() bool {
	switch s {
	case StatusNormal, StatusNeedsIntervention, StatusRemedial:
		return true
	}
	return false
}

// Student 学生档案由外部录入，干预流程只修改状态相关字段
// 仅当状态为 Remedial 时 CurrentTask 非空
// swagger:model Student
type Student struct {
	ID                    string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name                  string        `gorm:"size:100;not null" json:"name"`
	Status                StudentStatus `gorm:"size:32;not null;default:'Normal';index" json:"status"`
	CurrentTask           string        `gorm:"type:text" json:"current_task,omitempty"`
	CurrentInterventionID *string       `gorm:"type:varchar(36)" json:"current_intervention_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// MarkOnTrack 打卡达标，回到正常状态
func (s *Student) MarkOnTrack(now time.Time) {
	s.Status = StatusNormal
	s.CurrentTask = ""
	s.UpdatedAt = now
}

// MarkNeedsIntervention 打卡未达标，关联本轮待处理的干预
func (s *Student) MarkNeedsIntervention(interventionID string, now time.Time) {
	s.Status = StatusNeedsIntervention
	s.CurrentTask = ""
	s.CurrentInterventionID = &interventionID
	s.UpdatedAt = now
}

// StartRemediation 分配补救任务，进入 Remedial
// interventionID 为空时保留原有关联
func (s *Student) StartRemediation(task, interventionID string, now time.Time) {
	s.Status = StatusRemedial
	s.CurrentTask = task
	if interventionID != "" {
		s.CurrentInterventionID = &interventionID
	}
	s.UpdatedAt = now
}

// FinishRemediation 完成补救任务，回到正常状态
func (s *Student) FinishRemediation(now time.Time) {
	s.Status = StatusNormal
	s.CurrentTask = ""
	s.CurrentInterventionID = nil
	s.UpdatedAt = now
}

// Consistent 检查任务与状态是否一致
func (s *Student) Consistent() bool {
	return (s.CurrentTask != "") == (s.Status == StatusRemedial)
}

// StudentSummary 学生列表项
// swagger:model StudentSummary
type StudentSummary struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status StudentStatus `json:"status"`
}
