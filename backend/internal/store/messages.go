package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultConversationLimit bounds how many messages a conversation fetch returns
const DefaultConversationLimit = 50

// MessageRepository persists direct messages between users
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a new direct message
func (r *MessageRepository) Create(ctx context.Context, senderID, recipientID uint, content string) (*Message, error) {
	message := &Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Timestamp:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// Conversation returns messages exchanged between two users, newest first
func (r *MessageRepository) Conversation(ctx context.Context, user1ID, user2ID uint, limit int) ([]Message, error) {
	if limit < 1 {
		limit = DefaultConversationLimit
	}

	var messages []Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			user1ID, user2ID, user2ID, user1ID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// AllForUser returns every message the user sent or received, newest first
func (r *MessageRepository) AllForUser(ctx context.Context, userID uint) ([]Message, error) {
	var messages []Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("timestamp DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks all unread messages from sender to recipient as read
func (r *MessageRepository) MarkRead(ctx context.Context, recipientID, senderID uint) error {
	return r.db.WithContext(ctx).
		Model(&Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read = ?", recipientID, senderID, false).
		Update("read", true).Error
}

// Delete removes a message if the given user participates in it. Returns
// whether a row was deleted.
func (r *MessageRepository) Delete(ctx context.Context, messageID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND (sender_id = ? OR recipient_id = ?)", messageID, userID, userID).
		Delete(&Message{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
