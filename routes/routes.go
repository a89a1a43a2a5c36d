package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"healthcare-chat/handler"
	"healthcare-chat/middleware"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.UserHandler
	*handler.ChatHandler
	*handler.FriendHandler
}

func (rc *ConfigRoute) GetRoute() {
	rc.GetPublicRoute()
	rc.GetProtectedRoute()
}

func (rc *ConfigRoute) GetPublicRoute() {
	rc.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1", rc.Middleware.JWTProtected, rc.Middleware.ExtractUserID)

	app.Get("/users/me/", rc.UserHandler.GetCurrentUser)
	app.Get("/users/", rc.UserHandler.GetAllUsers)

	chat := app.Group("/chat")
	chat.Get("/chat-rooms/", rc.ChatHandler.ListRooms)
	chat.Post("/start-chat/:userId/", rc.ChatHandler.StartChat)
	chat.Get("/messages/:roomId/", rc.ChatHandler.GetMessages)
	chat.Post("/messages/:roomId/", rc.ChatHandler.SendMessage)

	chat.Get("/friends/", rc.FriendHandler.ListFriends)
	chat.Post("/friends/:userId/", rc.FriendHandler.SendRequest)
	chat.Get("/friend-requests/", rc.FriendHandler.ListRequests)
	chat.Patch("/friend-requests/:requestId/", rc.FriendHandler.Respond)
}

func (rc *ConfigRoute) GetWebSocketRoute(wsHandler *handler.WebSocketHandler) {
	ws := rc.App.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, rc.Middleware.JWTProtected, rc.Middleware.ExtractUserID)

	ws.Get("/rooms/:roomId", websocket.New(wsHandler.HandleWebSocket))
}
