package entity

type Message struct {
	BaseEntity
	RoomID    int64   `json:"roomId" gorm:"not null;index;uniqueIndex:idx_message_client_ref,priority:1"`
	SenderID  int64   `json:"senderId" gorm:"not null;uniqueIndex:idx_message_client_ref,priority:2"`
	Content   string  `json:"content" gorm:"type:TEXT;not null"`
	ClientRef *string `json:"clientRef,omitempty" gorm:"type:varchar(64);uniqueIndex:idx_message_client_ref,priority:3"`

	Sender User `json:"-" gorm:"foreignKey:SenderID;references:ID"`
}
