package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
	"healthcare-chat/repository"
)

type FriendUsecaseImpl struct {
	*repository.FriendRepository
	UserRepository *repository.UserRepository
	*validator.Validate
	*gorm.DB
	*logrus.Logger
}

func NewFriendUsecase(friendRepository *repository.FriendRepository, userRepository *repository.UserRepository, validate *validator.Validate, DB *gorm.DB, logger *logrus.Logger) FriendUsecase {
	return &FriendUsecaseImpl{FriendRepository: friendRepository, UserRepository: userRepository, Validate: validate, DB: DB, Logger: logger}
}

func (uc *FriendUsecaseImpl) ListFriends(ctx context.Context, userID int64) ([]res.FriendResponse, error) {
	edges, err := uc.FriendRepository.FindAccepted(ctx, uc.DB, userID)
	if err != nil {
		uc.Logger.WithError(err).Error("Failed to get friends")
		return nil, apperror.Internal("ListFriends", err)
	}
	return toFriendResponses(edges), nil
}

func (uc *FriendUsecaseImpl) ListIncomingRequests(ctx context.Context, userID int64) ([]res.FriendResponse, error) {
	edges, err := uc.FriendRepository.FindIncomingPending(ctx, uc.DB, userID)
	if err != nil {
		uc.Logger.WithError(err).Error("Failed to get friend requests")
		return nil, apperror.Internal("ListIncomingRequests", err)
	}
	return toFriendResponses(edges), nil
}

func (uc *FriendUsecaseImpl) SendFriendRequest(ctx context.Context, userID, targetUserID int64) (res.FriendResponse, error) {
	if userID == targetUserID {
		return res.FriendResponse{}, apperror.Validation("SendFriendRequest", "cannot send a friend request to yourself")
	}

	// start transaction
	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	var target entity.User
	if err := uc.UserRepository.FindById(ctx, trx, &target, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res.FriendResponse{}, apperror.NotFound("SendFriendRequest", "user not found")
		}
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}

	pairKey := entity.PairKey(userID, targetUserID)
	active, err := uc.FriendRepository.FindActiveByPair(ctx, trx, pairKey)
	if err != nil {
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}
	if active != nil {
		uc.Logger.Infof("Friend edge %d already active for %s", active.ID, pairKey)
		return res.FriendResponse{}, activeEdgeConflict(userID, active)
	}

	edge := &entity.FriendEdge{
		SenderID:   userID,
		ReceiverID: targetUserID,
		Status:     enum.FriendStatusPending,
		PairKey:    pairKey,
	}
	// A concurrent request for the same pair trips the active pair index;
	// the savepoint keeps the transaction usable to report the winner.
	if err := trx.SavePoint("friend_edge").Error; err != nil {
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}
	if err := uc.FriendRepository.Save(ctx, trx, edge); err != nil {
		trx.RollbackTo("friend_edge")
		if winner, findErr := uc.FriendRepository.FindActiveByPair(ctx, trx, pairKey); findErr == nil && winner != nil {
			uc.Logger.Infof("Friend edge %d won the race for %s", winner.ID, pairKey)
			return res.FriendResponse{}, activeEdgeConflict(userID, winner)
		}
		uc.Logger.WithError(err).Errorf("failed to save friend request : %v", err)
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}

	stored, err := uc.FriendRepository.FindWithUsers(ctx, trx, edge.ID)
	if err != nil {
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}

	if err := trx.Commit().Error; err != nil {
		uc.Logger.WithError(err).Errorf("failed to commit friend request : %v", err)
		return res.FriendResponse{}, apperror.Internal("SendFriendRequest", err)
	}
	return toFriendResponse(*stored), nil
}

// RespondToRequest moves a pending edge to its terminal state. Only the
// receiver may answer; an edge that is no longer pending is a conflict.
func (uc *FriendUsecaseImpl) RespondToRequest(ctx context.Context, userID, edgeID int64, request *req.RespondFriendRequest) (res.FriendResponse, error) {
	if err := uc.Validate.Struct(request); err != nil {
		return res.FriendResponse{}, apperror.Wrap(apperror.KindValidation, "RespondToRequest", err)
	}
	status, _ := request.Action.Status()

	trx := uc.DB.WithContext(ctx).Begin()
	defer trx.Rollback()

	edge, err := uc.FriendRepository.FindWithUsers(ctx, trx, edgeID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && edge.ReceiverID != userID) {
		return res.FriendResponse{}, apperror.NotFound("RespondToRequest", "friend request not found")
	}
	if err != nil {
		return res.FriendResponse{}, apperror.Internal("RespondToRequest", err)
	}
	if edge.Status != enum.FriendStatusPending {
		return res.FriendResponse{}, apperror.Conflict("RespondToRequest", "friend request already "+string(edge.Status))
	}

	edge.Status = status
	if err := uc.FriendRepository.Update(ctx, trx, edge); err != nil {
		return res.FriendResponse{}, apperror.Internal("RespondToRequest", err)
	}
	if err := trx.Commit().Error; err != nil {
		return res.FriendResponse{}, apperror.Internal("RespondToRequest", err)
	}

	uc.Logger.Infof("Friend request %d %s by user %d", edge.ID, edge.Status, userID)
	return toFriendResponse(*edge), nil
}

// activeEdgeConflict explains which active edge blocks a new request. When
// the other user already asked, the message names the request to accept.
func activeEdgeConflict(userID int64, active *entity.FriendEdge) error {
	switch {
	case active.Status == enum.FriendStatusAccepted:
		return apperror.Conflict("SendFriendRequest", "you are already friends")
	case active.ReceiverID == userID:
		return apperror.Conflict("SendFriendRequest",
			fmt.Sprintf("this user already sent you friend request %d; accept it instead", active.ID))
	default:
		return apperror.Conflict("SendFriendRequest", "friend request already exists")
	}
}

func toFriendResponses(edges []entity.FriendEdge) []res.FriendResponse {
	responses := make([]res.FriendResponse, 0, len(edges))
	for _, edge := range edges {
		responses = append(responses, toFriendResponse(edge))
	}
	return responses
}
