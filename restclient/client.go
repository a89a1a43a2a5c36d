// Package restclient talks to the chat REST collaborator.
package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/enum"
	"healthcare-chat/session"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	session *session.Session
	timeout time.Duration
	log     *logrus.Logger
}

func New(baseURL string, s *session.Session, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		session: s,
		timeout: timeout,
		log:     logger,
	}
}

func (c *Client) ListRooms(ctx context.Context) ([]res.ChatRoomResponse, error) {
	return call[[]res.ChatRoomResponse](ctx, c, "ListRooms", fiber.MethodGet, "/chat/chat-rooms/", nil)
}

func (c *Client) GetMessages(ctx context.Context, roomID int64) ([]res.MessageResponse, error) {
	return call[[]res.MessageResponse](ctx, c, "GetMessages", fiber.MethodGet, fmt.Sprintf("/chat/messages/%d/", roomID), nil)
}

func (c *Client) SendMessage(ctx context.Context, roomID int64, request req.MessageRequest) (res.MessageResponse, error) {
	return call[res.MessageResponse](ctx, c, "SendMessage", fiber.MethodPost, fmt.Sprintf("/chat/messages/%d/", roomID), request)
}

func (c *Client) StartChat(ctx context.Context, targetUserID int64) (res.StartChatResponse, error) {
	return call[res.StartChatResponse](ctx, c, "StartChat", fiber.MethodPost, fmt.Sprintf("/chat/start-chat/%d/", targetUserID), nil)
}

func (c *Client) ListFriends(ctx context.Context) ([]res.FriendResponse, error) {
	return call[[]res.FriendResponse](ctx, c, "ListFriends", fiber.MethodGet, "/chat/friends/", nil)
}

func (c *Client) ListFriendRequests(ctx context.Context) ([]res.FriendResponse, error) {
	return call[[]res.FriendResponse](ctx, c, "ListFriendRequests", fiber.MethodGet, "/chat/friend-requests/", nil)
}

func (c *Client) SendFriendRequest(ctx context.Context, targetUserID int64) (res.FriendResponse, error) {
	return call[res.FriendResponse](ctx, c, "SendFriendRequest", fiber.MethodPost, fmt.Sprintf("/chat/friends/%d/", targetUserID), nil)
}

func (c *Client) RespondFriendRequest(ctx context.Context, edgeID int64, action enum.FriendAction) (res.FriendResponse, error) {
	return call[res.FriendResponse](ctx, c, "RespondFriendRequest", fiber.MethodPatch, fmt.Sprintf("/chat/friend-requests/%d/", edgeID), req.RespondFriendRequest{Action: action})
}

func (c *Client) CurrentUser(ctx context.Context) (res.UserResponse, error) {
	return call[res.UserResponse](ctx, c, "CurrentUser", fiber.MethodGet, "/users/me/", nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]res.UserResponse, error) {
	return call[[]res.UserResponse](ctx, c, "ListUsers", fiber.MethodGet, "/users/", nil)
}

type result struct {
	code int
	body []byte
	errs []error
}

func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, error) {
	var zero T
	raw, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return zero, err
	}

	var envelope res.CommonResponse[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return zero, apperror.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return envelope.Data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	if !c.session.Valid() {
		return nil, apperror.Auth(op, "session is no longer valid")
	}
	if err := ctx.Err(); err != nil {
		return nil, c.contextError(ctx, op)
	}

	agent := fiber.AcquireAgent()
	request := agent.Request()
	request.Header.SetMethod(method)
	request.SetRequestURI(c.baseURL + path)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.session.Token())
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		agent.JSON(body)
	}
	agent.Timeout(c.timeout)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, apperror.Network(op, err)
	}

	// Bytes releases the agent; the buffered channel lets an abandoned call finish.
	done := make(chan result, 1)
	go func() {
		code, respBody, errs := agent.Bytes()
		done <- result{code: code, body: respBody, errs: errs}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, c.contextError(ctx, op)
	case r = <-done:
	}

	if len(r.errs) > 0 {
		c.log.WithError(r.errs[0]).Debugf("%s %s failed", method, path)
		return nil, apperror.Network(op, errors.Join(r.errs...))
	}
	if r.code >= 200 && r.code < 300 {
		return r.body, nil
	}
	return nil, c.statusError(op, r.code, r.body)
}

func (c *Client) contextError(ctx context.Context, op string) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, session.ErrUnauthorized) || errors.Is(cause, session.ErrLoggedOut) {
		return apperror.Wrap(apperror.KindAuth, op, cause)
	}
	return apperror.Network(op, cause)
}

func (c *Client) statusError(op string, code int, body []byte) error {
	var payload res.ErrorResponse
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		message = payload.Error
	}
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", code)
	}

	appErr := &apperror.Error{Op: op, Message: message, Status: code}
	switch {
	case code == fiber.StatusUnauthorized:
		appErr.Kind = apperror.KindAuth
		c.session.Invalidate(session.ErrUnauthorized)
	case code == fiber.StatusConflict:
		appErr.Kind = apperror.KindConflict
	case code == fiber.StatusNotFound || code == fiber.StatusForbidden:
		appErr.Kind = apperror.KindNotFound
	case code == fiber.StatusBadRequest || code == fiber.StatusUnprocessableEntity:
		appErr.Kind = apperror.KindValidation
	default:
		appErr.Kind = apperror.KindNetwork
	}
	return appErr
}
