package res

import (
	"healthcare-chat/enum"
	"time"
)

type FriendResponse struct {
	ID        int64             `json:"id"`
	Sender    UserResponse      `json:"sender"`
	Receiver  UserResponse      `json:"receiver"`
	Status    enum.FriendStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
