package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
)

type FriendRepository struct {
	Repository[entity.FriendEdge]
}

func NewFriendRepository() *FriendRepository {
	return &FriendRepository{}
}

// FindActiveByPair returns the pending or accepted edge of an unordered pair,
// or nil when there is none.
func (repository FriendRepository) FindActiveByPair(ctx context.Context, db *gorm.DB, pairKey string) (*entity.FriendEdge, error) {
	var edge entity.FriendEdge
	err := db.WithContext(ctx).
		Where("pair_key = ? AND status IN ?", pairKey, []enum.FriendStatus{enum.FriendStatusPending, enum.FriendStatusAccepted}).
		Take(&edge).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (repository FriendRepository) FindWithUsers(ctx context.Context, db *gorm.DB, id int64) (*entity.FriendEdge, error) {
	var edge entity.FriendEdge
	err := db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("id = ?", id).
		Take(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (repository FriendRepository) FindAccepted(ctx context.Context, db *gorm.DB, userID int64) ([]entity.FriendEdge, error) {
	var edges []entity.FriendEdge
	err := db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, enum.FriendStatusAccepted).
		Order("created_at ASC, id ASC").
		Find(&edges).Error
	return edges, err
}

func (repository FriendRepository) FindIncomingPending(ctx context.Context, db *gorm.DB, userID int64) ([]entity.FriendEdge, error) {
	var edges []entity.FriendEdge
	err := db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("receiver_id = ? AND status = ?", userID, enum.FriendStatusPending).
		Order("created_at ASC, id ASC").
		Find(&edges).Error
	return edges, err
}
