package models

import "time"

// Topic groups posts. Posts reference topics by id; no cascade behavior is
// attached to the reference.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
