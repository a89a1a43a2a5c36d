package entity

type ChatRoom struct {
	BaseEntity
	IsPrivate bool `json:"isPrivate" gorm:"not null;default:true"`
	// PairKey is set for private rooms only, unique so a pair never gets two rooms.
	PairKey *string `json:"-" gorm:"type:varchar(50);uniqueIndex"`

	Participants []ChatParticipant `json:"participants" gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE;"`
	Messages     []Message         `json:"messages" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE;"`
}

type ChatParticipant struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	ChatRoomID int64 `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID     int64 `gorm:"not null;uniqueIndex:idx_room_user"`

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}
