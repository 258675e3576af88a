package models

import (
	"fmt"
	"time"

	"attendance-bot/internal/timeofday"
)

// Статусы заявок на исправление
const (
	CorrectionStatusPending  = "pending"  // Ждет проверки
	CorrectionStatusApproved = "approved" // Одобрена и применена к записи
)

// Correction заявка на исправление времени записи посещаемости
type Correction struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	AttendanceID   uint                `gorm:"not null;index" json:"attendance_id"`
	UserID         uint                `gorm:"not null;index" json:"user_id"`
	RequestedStart timeofday.TimeOfDay `gorm:"not null" json:"requested_start_time"`
	RequestedEnd   timeofday.TimeOfDay `gorm:"not null" json:"requested_end_time"`
	Reason         string              `gorm:"type:varchar(400);not null" json:"reason"`
	Status         string              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	ReviewerID *uint      `json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	Rests []CorrectionRest `gorm:"foreignKey:CorrectionID" json:"rests"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Attendance Attendance `gorm:"foreignKey:AttendanceID" json:"-"`
}

func (Correction) TableName() string {
	return "attendance_corrections"
}

// IsPending заявка ждет проверки
func (c *Correction) IsPending() bool {
	return c.Status == CorrectionStatusPending
}

// CorrectionRest исправление перерыва. RestID == nil значит новый перерыв.
type CorrectionRest struct {
	ID           uint                `gorm:"primarykey" json:"id"`
	CorrectionID uint                `gorm:"not null;index" json:"correction_id"`
	RestID       *uint               `json:"rest_id"`
	StartTime    timeofday.TimeOfDay `gorm:"not null" json:"start_time"`
	EndTime      timeofday.TimeOfDay `gorm:"not null" json:"end_time"`
}

func (CorrectionRest) TableName() string {
	return "attendance_correction_rests"
}

// String строка для сообщений: "☕ Перерыв №3: 12:00 - 12:30" или "☕ Перерыв новый: ..."
func (r CorrectionRest) String() string {
	label := "новый"
	if r.RestID != nil {
		label = fmt.Sprintf("№%d", *r.RestID)
	}
	return fmt.Sprintf("☕ Перерыв %s: %s - %s", label, r.StartTime, r.EndTime)
}
