package models

import "time"

// Post is a forum post. Slug is derived from the title at creation time and
// never changes afterwards; it is the public identifier used in routes.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	TopicID   uint      `gorm:"index" json:"topicId"`
	Slug      string    `gorm:"size:250;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Published bool      `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *User     `json:"user,omitempty"`
}
