package entity

import "healthcare-chat/enum"

type User struct {
	BaseEntity
	Username string        `json:"username" gorm:"type:varchar(100)"`
	Email    string        `json:"email" gorm:"unique;type:varchar(100)"`
	Type     enum.UserType `json:"type" gorm:"type:varchar(10);default:'patient'"`

	Messages      []Message         `json:"-" gorm:"foreignKey:SenderID"`
	Participating []ChatParticipant `json:"-" gorm:"foreignKey:UserID"`
}
