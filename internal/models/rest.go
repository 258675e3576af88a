package models

import "time"

// Rest перерыв внутри рабочего дня
type Rest struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	AttendanceID uint       `gorm:"not null;index" json:"attendance_id"`
	StartAt      time.Time  `gorm:"not null" json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Rest) TableName() string {
	return "rests"
}

// Minutes длительность перерыва; 0 если он еще идет
func (r *Rest) Minutes() int {
	if r.EndAt == nil {
		return 0
	}
	minutes := int(r.EndAt.Sub(r.StartAt).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}
