package handler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
	"healthcare-chat/dto"
	"healthcare-chat/usecase"
)

const writeWait = 5 * time.Second

// PushConn is the part of a websocket connection the hub writes to.
type PushConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// WebSocketHandler pushes newly created messages to the participants that
// keep a room open. It is a delivery shortcut only; clients still poll.
type WebSocketHandler struct {
	*logrus.Logger
	sync.Mutex
	usecase.ChatUsecase
	Clients   map[int64]map[PushConn]bool // roomId -> connected clients
	Broadcast chan dto.BroadcastMessage
	done      chan struct{}
	closeOnce sync.Once
}

func NewWebSocketHandler(logger *logrus.Logger, chatUsecase usecase.ChatUsecase) *WebSocketHandler {
	handler := &WebSocketHandler{
		Logger:      logger,
		Clients:     make(map[int64]map[PushConn]bool),
		Broadcast:   make(chan dto.BroadcastMessage, 256),
		ChatUsecase: chatUsecase,
		done:        make(chan struct{}),
	}
	go handler.runBroadcast()
	return handler
}

// Publish implements usecase.Publisher. A full queue drops the event; the
// subscribers pick the message up on their next poll.
func (handler *WebSocketHandler) Publish(message dto.BroadcastMessage) {
	select {
	case handler.Broadcast <- message:
	case <-handler.done:
	default:
		handler.Logger.Warnf("Broadcast queue full, dropping push for room %d", message.RoomID)
	}
}

func (handler *WebSocketHandler) Close() {
	handler.closeOnce.Do(func() { close(handler.done) })
}

func (handler *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	defer c.Close()

	roomID, err := strconv.ParseInt(c.Params("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		handler.Logger.Warn("Invalid connection request: bad roomId")
		return
	}
	userID, ok := c.Locals("user_id").(int64)
	if !ok {
		handler.Logger.Warn("Invalid connection request: missing user")
		return
	}

	isParticipant, err := handler.ChatUsecase.IsParticipant(context.Background(), roomID, userID)
	if err != nil || !isParticipant {
		handler.Logger.Warnf("User %d may not subscribe to room %d", userID, roomID)
		return
	}

	handler.registerClient(roomID, c)
	defer handler.removeClient(roomID, c)

	// Subscribers never send; reading only detects the close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			handler.Logger.Debugf("Read error: %v", err)
			return
		}
	}
}

func (handler *WebSocketHandler) registerClient(roomID int64, conn PushConn) {
	handler.Mutex.Lock()
	defer handler.Mutex.Unlock()

	if handler.Clients[roomID] == nil {
		handler.Clients[roomID] = make(map[PushConn]bool)
	}
	handler.Clients[roomID][conn] = true
	handler.Logger.Infof("Client joined chat room: %d (Total: %d)", roomID, len(handler.Clients[roomID]))
}

func (handler *WebSocketHandler) removeClient(roomID int64, conn PushConn) {
	handler.Mutex.Lock()
	defer handler.Mutex.Unlock()

	if clients, ok := handler.Clients[roomID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(handler.Clients, roomID)
		}
	}
	handler.Logger.Infof("Client left chat room: %d", roomID)
}

func (handler *WebSocketHandler) runBroadcast() {
	for {
		select {
		case <-handler.done:
			return
		case msg := <-handler.Broadcast:
			handler.deliver(msg)
		}
	}
}

// deliver writes outside the lock so a slow subscriber never blocks joins
// and leaves; the write deadline bounds how long it can hold the queue.
func (handler *WebSocketHandler) deliver(msg dto.BroadcastMessage) {
	handler.Mutex.Lock()
	clients := make([]PushConn, 0, len(handler.Clients[msg.RoomID]))
	for conn := range handler.Clients[msg.RoomID] {
		clients = append(clients, conn)
	}
	handler.Mutex.Unlock()

	for _, conn := range clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			handler.Logger.Warnf("Error broadcasting message: %v", err)
			conn.Close()
			handler.removeClient(msg.RoomID, conn)
		}
	}
}
