package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"healthcare-chat/entity"
)

type ChatRepository struct {
	Repository[entity.ChatRoom]
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (repository ChatRepository) FindPrivateByPair(ctx context.Context, db *gorm.DB, pairKey string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := db.WithContext(ctx).Where("pair_key = ? AND is_private = ?", pairKey, true).Take(&room).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (repository ChatRepository) CreateChatWithParticipants(ctx context.Context, db *gorm.DB, room *entity.ChatRoom, participants []entity.ChatParticipant) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants", "Messages").Create(room).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatRoomID = room.ID
		}
		return tx.Omit("User").Create(&participants).Error
	})
}

func (repository ChatRepository) FindAllByUserID(ctx context.Context, db *gorm.DB, userID int64) ([]entity.ChatRoom, error) {
	var rooms []entity.ChatRoom

	err := db.WithContext(ctx).
		Model(&entity.ChatRoom{}).
		Joins("JOIN t_chat_participant cp ON cp.chat_room_id = t_chat_room.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants.User").
		Order("t_chat_room.created_at DESC, t_chat_room.id DESC").
		Find(&rooms).Error

	if err != nil {
		return nil, err
	}

	return rooms, nil
}

func (repository ChatRepository) IsUserInRoom(ctx context.Context, db *gorm.DB, roomID, userID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&entity.ChatParticipant{}).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
