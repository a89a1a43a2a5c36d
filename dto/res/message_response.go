package res

import "time"

type MessageResponse struct {
	ID        int64        `json:"id"`
	RoomID    int64        `json:"room"`
	Content   string       `json:"content"`
	Sender    UserResponse `json:"sender"`
	Timestamp time.Time    `json:"timestamp"`
	ClientRef string       `json:"client_ref,omitempty"`
}
