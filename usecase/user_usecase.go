package usecase

import (
	"context"

	"healthcare-chat/dto/res"
	"healthcare-chat/enum"
)

type UserUsecase interface {
	GetUserByID(ctx context.Context, userID int64) (res.UserResponse, error)
	GetAllUser(ctx context.Context) ([]res.UserResponse, error)
	EnsureUser(ctx context.Context, username, email string, userType enum.UserType) (res.UserResponse, error)
}
