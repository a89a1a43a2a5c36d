package res

import "time"

type ChatRoomResponse struct {
	ID           int64          `json:"id"`
	Participants []UserResponse `json:"participants"`
	CreatedAt    time.Time      `json:"created_at"`
	IsPrivate    bool           `json:"is_private"`
	OtherUser    *UserResponse  `json:"other_user"`
}

type StartChatResponse struct {
	RoomID  int64 `json:"room_id"`
	Created bool  `json:"created"`
}
