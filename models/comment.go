package models

import "time"

// Comment is a reply attached to a post. Every comment must reference an
// existing post; deleting a post removes its comments first.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index" json:"userId"`
	PostID      uint      `gorm:"index;not null" json:"postId"`
	Slug        string    `gorm:"size:250;not null" json:"slug"`
	CommentBody string    `gorm:"type:text;not null" json:"commentBody"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	User        *User     `json:"user,omitempty"`
}
