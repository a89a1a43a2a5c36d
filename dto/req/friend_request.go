package req

import "healthcare-chat/enum"

type RespondFriendRequest struct {
	Action enum.FriendAction `json:"action" validate:"required,oneof=accept reject"`
}
