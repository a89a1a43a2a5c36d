package dto

import "healthcare-chat/dto/res"

const BroadcastTypeMessage = "message"

// BroadcastMessage is pushed to every websocket subscriber of a room.
type BroadcastMessage struct {
	Type    string              `json:"type"`
	RoomID  int64               `json:"roomId"`
	Message res.MessageResponse `json:"message"`
}
