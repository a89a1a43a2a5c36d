package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/usecase"
)

type ChatHandler struct {
	usecase.ChatUsecase
	usecase.MessageUsecase
	*logrus.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, messageUsecase usecase.MessageUsecase, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		ChatUsecase:    chatUsecase,
		MessageUsecase: messageUsecase,
		Logger:         logger,
	}
}

func (handler *ChatHandler) ListRooms(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	rooms, err := handler.ChatUsecase.ListRooms(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.ChatRoomResponse]{
		Message:    "Successfully to Get All Chat Rooms",
		StatusCode: fiber.StatusOK,
		Data:       rooms,
	})
}

func (handler *ChatHandler) StartChat(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	started, err := handler.ChatUsecase.StartChat(c.UserContext(), userID, targetID)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to start chat with user %d", targetID)
		return err
	}

	status := fiber.StatusOK
	if started.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res.CommonResponse[res.StartChatResponse]{
		Message:    "Successfully to Start Chat",
		StatusCode: status,
		Data:       started,
	})
}

func (handler *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	roomID, err := paramID(c, "roomId")
	if err != nil {
		return err
	}

	messages, err := handler.MessageUsecase.GetMessages(c.UserContext(), userID, roomID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.MessageResponse]{
		Message:    "Successfully to Get Messages",
		StatusCode: fiber.StatusOK,
		Data:       messages,
	})
}

func (handler *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	roomID, err := paramID(c, "roomId")
	if err != nil {
		return err
	}

	payload := new(req.MessageRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Validation("SendMessage", "invalid request body")
	}

	message, created, err := handler.MessageUsecase.SendMessage(c.UserContext(), userID, roomID, payload)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to send message to room %d", roomID)
		return err
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res.CommonResponse[res.MessageResponse]{
		Message:    "Successfully to Send Message",
		StatusCode: status,
		Data:       message,
	})
}
