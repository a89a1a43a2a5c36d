package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
	"healthcare-chat/security"
)

type testServer struct {
	t      *testing.T
	app    *AppConfig
	tokens map[int64]string
	users  map[string]entity.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	v := viper.New()
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DB_SQLITE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	v.Set("JWT_SECRET", "route-test-secret")
	cfg := common.NewFromViper(v)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	appConfig := NewAppConfig(cfg, log, logger.NewNopLogger())
	wsHandler := App(appConfig)
	t.Cleanup(func() {
		wsHandler.Close()
		if sqlDB, err := appConfig.DBConfig.GetDB().DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	server := &testServer{t: t, app: appConfig, tokens: map[int64]string{}, users: map[string]entity.User{}}
	jwtIssuer := security.NewJWT(cfg)
	for _, user := range []entity.User{
		{Username: "dr-ana", Email: "ana@clinic.test", Type: enum.UserTypeDoctor},
		{Username: "budi", Email: "budi@mail.test", Type: enum.UserTypePatient},
		{Username: "citra", Email: "citra@mail.test", Type: enum.UserTypePatient},
	} {
		require.NoError(t, appConfig.DBConfig.GetDB().Create(&user).Error)
		token, err := jwtIssuer.GenerateToken(&user)
		require.NoError(t, err)
		server.tokens[user.ID] = token
		server.users[user.Username] = user
	}
	return server
}

func (s *testServer) id(username string) int64 {
	return s.users[username].ID
}

// call performs a request as username and decodes the envelope into out.
func (s *testServer) call(username, method, path string, body any, out any) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if username != "" {
		request.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.tokens[s.id(username)])
	}

	response, err := s.app.App.Test(request, -1)
	require.NoError(s.t, err)
	defer response.Body.Close()

	if out != nil {
		require.NoError(s.t, json.NewDecoder(response.Body).Decode(out))
	}
	return response.StatusCode
}

func TestHealthIsPublicAndApiNeedsToken(t *testing.T) {
	server := newTestServer(t)

	assert.Equal(t, fiber.StatusNoContent, server.call("", http.MethodGet, "/healthz", nil, nil))

	var failure res.ErrorResponse
	assert.Equal(t, fiber.StatusUnauthorized, server.call("", http.MethodGet, "/api/v1/chat/chat-rooms/", nil, &failure))
	assert.Equal(t, "auth", failure.Code)
}

func TestStartChatRouteIsIdempotent(t *testing.T) {
	server := newTestServer(t)
	path := fmt.Sprintf("/api/v1/chat/start-chat/%d/", server.id("budi"))

	var first, second res.CommonResponse[res.StartChatResponse]
	assert.Equal(t, fiber.StatusCreated, server.call("dr-ana", http.MethodPost, path, nil, &first))
	assert.Equal(t, fiber.StatusOK, server.call("dr-ana", http.MethodPost, path, nil, &second))
	assert.Equal(t, first.Data.RoomID, second.Data.RoomID)

	var reverse res.CommonResponse[res.StartChatResponse]
	reversePath := fmt.Sprintf("/api/v1/chat/start-chat/%d/", server.id("dr-ana"))
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodPost, reversePath, nil, &reverse))
	assert.Equal(t, first.Data.RoomID, reverse.Data.RoomID)

	var rooms res.CommonResponse[[]res.ChatRoomResponse]
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodGet, "/api/v1/chat/chat-rooms/", nil, &rooms))
	require.Len(t, rooms.Data, 1)
	require.NotNil(t, rooms.Data[0].OtherUser)
	assert.Equal(t, server.id("dr-ana"), rooms.Data[0].OtherUser.ID)

	selfPath := fmt.Sprintf("/api/v1/chat/start-chat/%d/", server.id("budi"))
	assert.Equal(t, fiber.StatusBadRequest, server.call("budi", http.MethodPost, selfPath, nil, nil))
}

func TestSendMessageReplaysClientRef(t *testing.T) {
	server := newTestServer(t)
	var started res.CommonResponse[res.StartChatResponse]
	server.call("dr-ana", http.MethodPost, fmt.Sprintf("/api/v1/chat/start-chat/%d/", server.id("budi")), nil, &started)
	path := fmt.Sprintf("/api/v1/chat/messages/%d/", started.Data.RoomID)

	request := req.MessageRequest{Content: "  please fast before the blood test  ", ClientRef: "c0ffee"}
	var first, replay res.CommonResponse[res.MessageResponse]
	assert.Equal(t, fiber.StatusCreated, server.call("dr-ana", http.MethodPost, path, request, &first))
	assert.Equal(t, fiber.StatusOK, server.call("dr-ana", http.MethodPost, path, request, &replay))
	assert.Equal(t, first.Data.ID, replay.Data.ID)
	assert.Equal(t, "please fast before the blood test", first.Data.Content)
	assert.Equal(t, "c0ffee", first.Data.ClientRef)
	assert.Equal(t, server.id("dr-ana"), first.Data.Sender.ID)

	var messages res.CommonResponse[[]res.MessageResponse]
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodGet, path, nil, &messages))
	assert.Len(t, messages.Data, 1)

	assert.Equal(t, fiber.StatusBadRequest, server.call("dr-ana", http.MethodPost, path, req.MessageRequest{Content: "   "}, nil))
	assert.Equal(t, fiber.StatusNotFound, server.call("citra", http.MethodGet, path, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, server.call("citra", http.MethodPost, path, req.MessageRequest{Content: "hi"}, nil))
}

func TestFriendRequestLifecycle(t *testing.T) {
	server := newTestServer(t)
	sendPath := fmt.Sprintf("/api/v1/chat/friends/%d/", server.id("budi"))

	var created res.CommonResponse[res.FriendResponse]
	assert.Equal(t, fiber.StatusCreated, server.call("dr-ana", http.MethodPost, sendPath, nil, &created))
	assert.Equal(t, enum.FriendStatusPending, created.Data.Status)

	var conflict res.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, server.call("dr-ana", http.MethodPost, sendPath, nil, &conflict))
	assert.Equal(t, "conflict", conflict.Code)
	reversePath := fmt.Sprintf("/api/v1/chat/friends/%d/", server.id("dr-ana"))
	var reverse res.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, server.call("budi", http.MethodPost, reversePath, nil, &reverse))
	assert.Contains(t, reverse.Error, fmt.Sprintf("friend request %d", created.Data.ID))

	var incoming res.CommonResponse[[]res.FriendResponse]
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodGet, "/api/v1/chat/friend-requests/", nil, &incoming))
	require.Len(t, incoming.Data, 1)

	respondPath := fmt.Sprintf("/api/v1/chat/friend-requests/%d/", created.Data.ID)
	accept := req.RespondFriendRequest{Action: enum.FriendActionAccept}
	assert.Equal(t, fiber.StatusNotFound, server.call("dr-ana", http.MethodPatch, respondPath, accept, nil))
	assert.Equal(t, fiber.StatusBadRequest, server.call("budi", http.MethodPatch, respondPath, req.RespondFriendRequest{Action: "maybe"}, nil))

	var accepted res.CommonResponse[res.FriendResponse]
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodPatch, respondPath, accept, &accepted))
	assert.Equal(t, enum.FriendStatusAccepted, accepted.Data.Status)
	assert.Equal(t, fiber.StatusConflict, server.call("budi", http.MethodPatch, respondPath, accept, nil))

	var friends res.CommonResponse[[]res.FriendResponse]
	assert.Equal(t, fiber.StatusOK, server.call("dr-ana", http.MethodGet, "/api/v1/chat/friends/", nil, &friends))
	assert.Len(t, friends.Data, 1)
	assert.Equal(t, fiber.StatusOK, server.call("budi", http.MethodGet, "/api/v1/chat/friend-requests/", nil, &incoming))
	assert.Empty(t, incoming.Data)
}

func TestUserRoutes(t *testing.T) {
	server := newTestServer(t)

	var me res.CommonResponse[res.UserResponse]
	assert.Equal(t, fiber.StatusOK, server.call("citra", http.MethodGet, "/api/v1/users/me/", nil, &me))
	assert.Equal(t, "citra", me.Data.Username)
	assert.Equal(t, enum.UserTypePatient, me.Data.Type)

	var all res.CommonResponse[[]res.UserResponse]
	assert.Equal(t, fiber.StatusOK, server.call("citra", http.MethodGet, "/api/v1/users/", nil, &all))
	assert.Len(t, all.Data, 3)
}
