// Package push subscribes to the room websocket of the chat server.
package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"healthcare-chat/dto"
	"healthcare-chat/dto/res"
	"healthcare-chat/session"
)

const (
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 64 * 1024
	bufferSize       = 16
)

// Subscriber implements chatsync.Pusher over gorilla/websocket.
type Subscriber struct {
	baseURL string
	session *session.Session
	dialer  *websocket.Dialer
	log     *logrus.Logger
}

// NewSubscriber takes the server base URL; http(s) is mapped to ws(s).
func NewSubscriber(baseURL string, s *session.Session, logger *logrus.Logger) *Subscriber {
	baseURL = strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		baseURL = "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		baseURL = "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return &Subscriber{
		baseURL: baseURL,
		session: s,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		log: logger,
	}
}

// Subscribe dials the room and forwards every pushed message until ctx ends
// or the server closes the connection.
func (s *Subscriber) Subscribe(ctx context.Context, roomID int64) (<-chan res.MessageResponse, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.session.Token())

	url := fmt.Sprintf("%s/ws/rooms/%d", s.baseURL, roomID)
	conn, resp, err := s.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	out := make(chan res.MessageResponse, bufferSize)
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()
	go s.readPump(ctx, conn, roomID, out)
	return out, nil
}

func (s *Subscriber) readPump(ctx context.Context, conn *websocket.Conn, roomID int64, out chan<- res.MessageResponse) {
	defer close(out)
	defer conn.Close()

	for {
		var event dto.BroadcastMessage
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Warnf("push connection for room %d lost", roomID)
			}
			return
		}
		if event.Type != dto.BroadcastTypeMessage || event.RoomID != roomID {
			continue
		}
		select {
		case out <- event.Message:
		case <-ctx.Done():
			return
		}
	}
}
