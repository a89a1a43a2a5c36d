package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"healthcare-chat/entity"
)

type MessageRepository struct {
	Repository[entity.Message]
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (repository MessageRepository) FindByRoomID(ctx context.Context, db *gorm.DB, roomID int64) ([]entity.Message, error) {
	var messages []entity.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// FindByClientRef returns the message a sender already created with the
// given correlation token, or nil.
func (repository MessageRepository) FindByClientRef(ctx context.Context, db *gorm.DB, roomID, senderID int64, clientRef string) (*entity.Message, error) {
	var message entity.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ? AND sender_id = ? AND client_ref = ?", roomID, senderID, clientRef).
		Take(&message).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (repository MessageRepository) FindWithSender(ctx context.Context, db *gorm.DB, id int64) (*entity.Message, error) {
	var message entity.Message
	if err := db.WithContext(ctx).Preload("Sender").Where("id = ?", id).Take(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}
