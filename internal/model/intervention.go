package model

import (
	"time"
)

// InterventionStatus 干预状态
type InterventionStatus string

const (
	InterventionPending   InterventionStatus = "Pending"
	InterventionAssigned  InterventionStatus = "Assigned"
	InterventionCompleted InterventionStatus = "Completed"
)

// Open 是否仍占用学生唯一的进行中干预名额
func (s InterventionStatus) Open() bool {
	return s == InterventionPending || s == InterventionAssigned
}

// Intervention 一轮干预记录
// 进行中时 OpenSlot 为学生ID，完成后置空，唯一索引保证每个学生最多一条进行中的干预
// swagger:model Intervention
type Intervention struct {
	UUIDBase
	StudentID    string             `gorm:"type:varchar(64);not null;index:idx_student_status,priority:1" json:"student_id"`
	Reason       string             `gorm:"type:text;not null" json:"reason"`
	AssignedTask string             `gorm:"type:text" json:"assigned_task,omitempty"`
	AssignedBy   string             `gorm:"size:100" json:"assigned_by,omitempty"`
	AssignedAt   *time.Time         `json:"assigned_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Status       InterventionStatus `gorm:"size:20;not null;default:'Pending';index:idx_student_status,priority:2" json:"status"`
	OpenSlot     *string            `gorm:"type:varchar(64);uniqueIndex:uniq_open_intervention" json:"-"`
}

func (Intervention) TableName() string {
	return "interventions"
}

// NewPendingIntervention 创建待处理的干预
func NewPendingIntervention(studentID, reason string) *Intervention {
	slot := studentID
	return &Intervention{
		UUIDBase:  UUIDBase{ID: GenerateUUID()},
		StudentID: studentID,
		Reason:    reason,
		Status:    InterventionPending,
		OpenSlot:  &slot,
	}
}

// Assign 分配任务，已完成的干预不再变更
func (i *Intervention) Assign(task, assignedBy string, now time.Time) bool {
	if !i.Status.Open() {
		return false
	}
	i.Status = InterventionAssigned
	i.AssignedTask = task
	i.AssignedBy = assignedBy
	i.AssignedAt = &now
	return true
}

// Complete 完成已分配的干预并释放名额
func (i *Intervention) Complete(now time.Time) bool {
	if i.Status != InterventionAssigned {
		return false
	}
	i.Status = InterventionCompleted
	i.CompletedAt = &now
	i.OpenSlot = nil
	return true
}
