package usecase

import (
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
)

func toUserResponse(user entity.User) res.UserResponse {
	return res.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Type:     user.Type,
	}
}

func toMessageResponse(message entity.Message) res.MessageResponse {
	response := res.MessageResponse{
		ID:        message.ID,
		RoomID:    message.RoomID,
		Content:   message.Content,
		Sender:    toUserResponse(message.Sender),
		Timestamp: message.CreatedAt,
	}
	if message.ClientRef != nil {
		response.ClientRef = *message.ClientRef
	}
	return response
}

func toFriendResponse(edge entity.FriendEdge) res.FriendResponse {
	return res.FriendResponse{
		ID:        edge.ID,
		Sender:    toUserResponse(edge.Sender),
		Receiver:  toUserResponse(edge.Receiver),
		Status:    edge.Status,
		CreatedAt: edge.CreatedAt,
	}
}

func toChatRoomResponse(room entity.ChatRoom, viewerID int64) res.ChatRoomResponse {
	response := res.ChatRoomResponse{
		ID:           room.ID,
		CreatedAt:    room.CreatedAt,
		IsPrivate:    room.IsPrivate,
		Participants: make([]res.UserResponse, 0, len(room.Participants)),
	}
	for _, participant := range room.Participants {
		user := toUserResponse(participant.User)
		response.Participants = append(response.Participants, user)
		if room.IsPrivate && participant.UserID != viewerID && response.OtherUser == nil {
			other := user
			response.OtherUser = &other
		}
	}
	return response
}
