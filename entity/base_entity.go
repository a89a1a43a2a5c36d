package entity

import (
	"fmt"
	"time"
)

type BaseEntity struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// PairKey identifies an unordered pair of users.
func PairKey(userAID, userBID int64) string {
	if userAID > userBID {
		userAID, userBID = userBID, userAID
	}
	return fmt.Sprintf("%d:%d", userAID, userBID)
}
