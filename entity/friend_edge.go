package entity

import "healthcare-chat/enum"

type FriendEdge struct {
	BaseEntity
	SenderID   int64             `json:"senderId" gorm:"not null;index"`
	ReceiverID int64             `json:"receiverId" gorm:"not null;index"`
	Status     enum.FriendStatus `json:"status" gorm:"type:varchar(10);not null;default:'pending'"`
	// PairKey is unique among pending and accepted edges, so a pair holds at
	// most one active edge.
	PairKey    string            `json:"-" gorm:"type:varchar(50);not null;uniqueIndex:idx_friend_active_pair,where:status <> 'rejected'"`

	Sender   User `json:"-" gorm:"foreignKey:SenderID;references:ID"`
	Receiver User `json:"-" gorm:"foreignKey:ReceiverID;references:ID"`
}
