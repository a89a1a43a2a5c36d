package usecase

import (
	"context"

	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
)

type FriendUsecase interface {
	ListFriends(ctx context.Context, userID int64) ([]res.FriendResponse, error)
	ListIncomingRequests(ctx context.Context, userID int64) ([]res.FriendResponse, error)
	SendFriendRequest(ctx context.Context, userID, targetUserID int64) (res.FriendResponse, error)
	RespondToRequest(ctx context.Context, userID, edgeID int64, request *req.RespondFriendRequest) (res.FriendResponse, error)
}
