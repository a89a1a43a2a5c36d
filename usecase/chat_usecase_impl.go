package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/repository"
)

type ChatUsecaseImpl struct {
	*repository.ChatRepository
	UserRepository *repository.UserRepository
	*logrus.Logger
	*gorm.DB
}

func NewChatUsecase(chatRepository *repository.ChatRepository, userRepository *repository.UserRepository, logger *logrus.Logger, DB *gorm.DB) *ChatUsecaseImpl {
	return &ChatUsecaseImpl{ChatRepository: chatRepository, UserRepository: userRepository, Logger: logger, DB: DB}
}

func (uc *ChatUsecaseImpl) ListRooms(ctx context.Context, userID int64) ([]res.ChatRoomResponse, error) {
	rooms, err := uc.ChatRepository.FindAllByUserID(ctx, uc.DB, userID)
	if err != nil {
		uc.Logger.WithError(err).Error("Failed to get chat rooms by user ID")
		return nil, apperror.Internal("ListRooms", err)
	}

	responses := make([]res.ChatRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, toChatRoomResponse(room, userID))
	}
	return responses, nil
}

// StartChat returns the private room of the pair, creating it on first use.
// The unique pair key makes a concurrent second creation fail, in which case
// the winner's room is returned.
func (uc *ChatUsecaseImpl) StartChat(ctx context.Context, userID, targetUserID int64) (res.StartChatResponse, error) {
	if userID == targetUserID {
		return res.StartChatResponse{}, apperror.Validation("StartChat", "cannot start a chat with yourself")
	}

	var target entity.User
	if err := uc.UserRepository.FindById(ctx, uc.DB, &target, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res.StartChatResponse{}, apperror.NotFound("StartChat", "user not found")
		}
		return res.StartChatResponse{}, apperror.Internal("StartChat", err)
	}

	pairKey := entity.PairKey(userID, targetUserID)
	existing, err := uc.ChatRepository.FindPrivateByPair(ctx, uc.DB, pairKey)
	if err != nil {
		return res.StartChatResponse{}, apperror.Internal("StartChat", err)
	}
	if existing != nil {
		return res.StartChatResponse{RoomID: existing.ID}, nil
	}

	newRoom := &entity.ChatRoom{IsPrivate: true, PairKey: &pairKey}
	participants := []entity.ChatParticipant{
		{UserID: userID},
		{UserID: targetUserID},
	}

	if err := uc.ChatRepository.CreateChatWithParticipants(ctx, uc.DB, newRoom, participants); err != nil {
		existing, findErr := uc.ChatRepository.FindPrivateByPair(ctx, uc.DB, pairKey)
		if findErr == nil && existing != nil {
			return res.StartChatResponse{RoomID: existing.ID}, nil
		}
		uc.Logger.WithError(err).Errorf("Failed to create private room for %s", pairKey)
		return res.StartChatResponse{}, apperror.Internal("StartChat", err)
	}

	uc.Logger.Infof("New private room created: %d (%s)", newRoom.ID, pairKey)
	return res.StartChatResponse{RoomID: newRoom.ID, Created: true}, nil
}

func (uc *ChatUsecaseImpl) IsParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	return uc.ChatRepository.IsUserInRoom(ctx, uc.DB, roomID, userID)
}
