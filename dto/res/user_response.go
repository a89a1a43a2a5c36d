package res

import "healthcare-chat/enum"

type UserResponse struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email,omitempty"`
	Type     enum.UserType `json:"type,omitempty"`
}
