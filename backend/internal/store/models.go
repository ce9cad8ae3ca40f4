package store

import (
	"strconv"
	"time"
)

// User is the canonical relational identity. The graph side references it
// only by the string form of ID.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"size:100;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// GraphID returns the identity key used for this user's node in the graph
func (u *User) GraphID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// Message is a direct message between two users
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"index;not null" json:"sender_id"`
	RecipientID uint      `gorm:"index;not null" json:"recipient_id"`
	Content     string    `gorm:"type:text" json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `gorm:"default:false" json:"read"`
}
