package messaging

import (
	"context"

	"go.uber.org/zap"
	"kindred/backend/internal/store"
	"kindred/backend/pkg/logger"
)

// Service provides direct-message operations on top of the relational store.
// Messaging is independent of matching: nothing here touches the graph.
type Service struct {
	messages *store.MessageRepository
	users    *store.UserRepository
	logger   *zap.Logger
}

// NewService creates a new messaging service
func NewService(messages *store.MessageRepository, users *store.UserRepository) *Service {
	return &Service{
		messages: messages,
		users:    users,
		logger:   logger.Get(),
	}
}

// ConversationSummary describes one conversation partner with the latest
// message and how many of their messages remain unread.
type ConversationSummary struct {
	User        *store.User   `json:"user"`
	LastMessage store.Message `json:"last_message"`
	UnreadCount int           `json:"unread_count"`
}

// Send stores a message from sender to recipient. The recipient must exist.
func (s *Service) Send(ctx context.Context, senderID, recipientID uint, content string) (*store.Message, error) {
	if _, err := s.users.FindByID(ctx, recipientID); err != nil {
		return nil, err
	}
	return s.messages.Create(ctx, senderID, recipientID, content)
}

// Conversation returns the recent messages between two users and marks the
// other side's messages as read.
func (s *Service) Conversation(ctx context.Context, userID, otherUserID uint) ([]store.Message, error) {
	messages, err := s.messages.Conversation(ctx, userID, otherUserID, store.DefaultConversationLimit)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkRead(ctx, userID, otherUserID); err != nil {
		s.logger.Warn("Failed to mark conversation as read",
			zap.Uint("user_id", userID),
			zap.Uint("other_user_id", otherUserID),
			zap.Error(err),
		)
	}
	return messages, nil
}

// ListConversations groups the user's messages by conversation partner,
// newest conversation first, with per-partner unread counts.
func (s *Service) ListConversations(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	messages, err := s.messages.AllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var order []uint
	byPartner := make(map[uint]*ConversationSummary)
	for _, message := range messages {
		partnerID := message.RecipientID
		if partnerID == userID {
			partnerID = message.SenderID
		}

		summary, seen := byPartner[partnerID]
		if !seen {
			partner, err := s.users.FindByID(ctx, partnerID)
			if err != nil {
				continue
			}
			// Messages arrive newest first, so the first one wins
			summary = &ConversationSummary{User: partner, LastMessage: message}
			byPartner[partnerID] = summary
			order = append(order, partnerID)
		}

		if message.RecipientID == userID && !message.Read {
			summary.UnreadCount++
		}
	}

	summaries := make([]ConversationSummary, 0, len(order))
	for _, partnerID := range order {
		summaries = append(summaries, *byPartner[partnerID])
	}
	return summaries, nil
}

// Delete removes one of the user's own messages
func (s *Service) Delete(ctx context.Context, messageID, userID uint) (bool, error) {
	return s.messages.Delete(ctx, messageID, userID)
}
