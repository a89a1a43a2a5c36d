package usecase

import (
	"context"

	"healthcare-chat/dto"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
)

type MessageUsecase interface {
	GetMessages(ctx context.Context, userID, roomID int64) ([]res.MessageResponse, error)
	// SendMessage reports created=false when the client_ref was already used
	// and the stored message is returned instead of a new one.
	SendMessage(ctx context.Context, userID, roomID int64, request *req.MessageRequest) (message res.MessageResponse, created bool, err error)
}

// Publisher fans a newly created message out to push subscribers.
type Publisher interface {
	Publish(message dto.BroadcastMessage)
}
