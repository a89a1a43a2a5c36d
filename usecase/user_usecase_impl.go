package usecase

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"healthcare-chat/apperror"
	"healthcare-chat/config/logger"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
	"healthcare-chat/repository"
)

type UserUsecaseImpl struct {
	*repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log *logger.AppLogger
}

type newUserInput struct {
	Username string        `validate:"required,min=2,max=100"`
	Email    string        `validate:"required,email"`
	Type     enum.UserType `validate:"required,oneof=doctor patient"`
}

func NewUserUsecase(userRepository *repository.UserRepository, validate *validator.Validate, DB *gorm.DB, logger *logger.AppLogger) UserUsecase {
	return &UserUsecaseImpl{UserRepository: userRepository, Validate: validate, DB: DB, Log: logger}
}

func (uc *UserUsecaseImpl) GetUserByID(ctx context.Context, userID int64) (res.UserResponse, error) {
	uc.Log.Http.Trace.Trace().
		Int64("userId", userID).
		Msg("Finding user by ID")

	var user entity.User
	if err := uc.UserRepository.FindById(ctx, uc.DB, &user, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			uc.Log.Http.Warning.Warn().
				Int64("userId", userID).
				Msg("User not found")
			return res.UserResponse{}, apperror.NotFound("GetUserByID", "user not found")
		}
		uc.Log.Http.Error.Error().
			Err(err).
			Int64("userId", userID).
			Msg("Failed to find user")
		return res.UserResponse{}, apperror.Internal("GetUserByID", err)
	}

	uc.Log.Http.Info.Info().
		Int64("userId", user.ID).
		Str("userName", user.Username).
		Msg("Successfully retrieved user")

	return toUserResponse(user), nil
}

func (uc *UserUsecaseImpl) GetAllUser(ctx context.Context) ([]res.UserResponse, error) {
	uc.Log.Http.Trace.Trace().Msg("Fetching all users from database")

	var users []entity.User
	if err := uc.UserRepository.FindAll(ctx, uc.DB, &users); err != nil {
		uc.Log.Http.Error.Error().
			Err(err).
			Msg("Failed to get all users")
		return nil, apperror.Internal("GetAllUser", err)
	}

	userResponses := make([]res.UserResponse, 0, len(users))
	for _, user := range users {
		userResponses = append(userResponses, toUserResponse(user))
	}

	uc.Log.Http.Info.Info().
		Int("userCount", len(userResponses)).
		Msg("Successfully retrieved all users")

	return userResponses, nil
}

// EnsureUser returns the user registered under email, creating it if needed.
func (uc *UserUsecaseImpl) EnsureUser(ctx context.Context, username, email string, userType enum.UserType) (res.UserResponse, error) {
	input := newUserInput{Username: username, Email: email, Type: userType}
	if err := uc.Validate.Struct(input); err != nil {
		return res.UserResponse{}, apperror.Wrap(apperror.KindValidation, "EnsureUser", err)
	}

	existing, err := uc.UserRepository.FindByEmail(ctx, uc.DB, email)
	if err == nil {
		return toUserResponse(*existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return res.UserResponse{}, apperror.Internal("EnsureUser", err)
	}

	user := entity.User{Username: username, Email: email, Type: userType}
	if err := uc.UserRepository.Save(ctx, uc.DB, &user); err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return res.UserResponse{}, apperror.Internal("EnsureUser", err)
	}

	uc.Log.Http.Info.Info().Int64("userId", user.ID).Str("type", string(userType)).Msg("User created")
	return toUserResponse(user), nil
}
