package message

import (
	"context"
	"errors"
	"strings"

	"rentara/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("conversation or property not found")
	ErrForbidden  = errors.New("not a party to this conversation")
)

type MessageRepository interface {
	GetOrCreateConversation(ctx context.Context, propertyID, tenantID, landlordID int64) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID int64) error
}

type PropertyReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
}

type Service struct {
	messages   MessageRepository
	properties PropertyReader
	hub        *Hub
}

func NewService(messages MessageRepository, properties PropertyReader, hub *Hub) *Service {
	return &Service{messages: messages, properties: properties, hub: hub}
}

// StartConversation opens (or returns) the tenant's thread with the
// property's landlord.
func (s *Service) StartConversation(ctx context.Context, propertyID, tenantID int64) (*domain.Conversation, error) {
	prop, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if prop.LandlordID == tenantID {
		return nil, ErrValidation
	}
	return s.messages.GetOrCreateConversation(ctx, propertyID, tenantID, prop.LandlordID)
}

func (s *Service) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	return s.messages.ListConversations(ctx, userID)
}

func (s *Service) Send(ctx context.Context, conversationID, senderID int64, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrValidation
	}

	conv, err := s.getConversationFor(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	m := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	// push to whoever is online; persistence above is the source of truth
	if s.hub != nil {
		recipient := conv.TenantID
		if senderID == conv.TenantID {
			recipient = conv.LandlordID
		}
		_ = s.hub.SendToUser(recipient, m)
		_ = s.hub.SendToUser(senderID, m)
	}
	return m, nil
}

func (s *Service) History(ctx context.Context, conversationID, callerID int64, limit int) ([]domain.Message, error) {
	if _, err := s.getConversationFor(ctx, conversationID, callerID); err != nil {
		return nil, err
	}
	return s.messages.ListMessages(ctx, conversationID, limit)
}

func (s *Service) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	if _, err := s.getConversationFor(ctx, conversationID, readerID); err != nil {
		return err
	}
	return s.messages.MarkRead(ctx, conversationID, readerID)
}

func (s *Service) getConversationFor(ctx context.Context, conversationID, userID int64) (*domain.Conversation, error) {
	conv, err := s.messages.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if conv.TenantID != userID && conv.LandlordID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}
