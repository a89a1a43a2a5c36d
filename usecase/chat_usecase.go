package usecase

import (
	"context"

	"healthcare-chat/dto/res"
)

type ChatUsecase interface {
	ListRooms(ctx context.Context, userID int64) ([]res.ChatRoomResponse, error)
	StartChat(ctx context.Context, userID, targetUserID int64) (res.StartChatResponse, error)
	IsParticipant(ctx context.Context, roomID, userID int64) (bool, error)
}
