package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/usecase"
)

type FriendHandler struct {
	usecase.FriendUsecase
	*logrus.Logger
}

func NewFriendHandler(friendUsecase usecase.FriendUsecase, logger *logrus.Logger) *FriendHandler {
	return &FriendHandler{FriendUsecase: friendUsecase, Logger: logger}
}

func (handler *FriendHandler) ListFriends(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	friends, err := handler.FriendUsecase.ListFriends(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.FriendResponse]{
		Message:    "Successfully to Get Friends",
		StatusCode: fiber.StatusOK,
		Data:       friends,
	})
}

func (handler *FriendHandler) ListRequests(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	requests, err := handler.FriendUsecase.ListIncomingRequests(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.FriendResponse]{
		Message:    "Successfully to Get Friend Requests",
		StatusCode: fiber.StatusOK,
		Data:       requests,
	})
}

func (handler *FriendHandler) SendRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	edge, err := handler.FriendUsecase.SendFriendRequest(c.UserContext(), userID, targetID)
	if err != nil {
		if !apperror.IsConflict(err) {
			handler.Logger.WithError(err).Errorf("Failed to send friend request to %d", targetID)
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[res.FriendResponse]{
		Message:    "Successfully to Send Friend Request",
		StatusCode: fiber.StatusCreated,
		Data:       edge,
	})
}

func (handler *FriendHandler) Respond(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	edgeID, err := paramID(c, "requestId")
	if err != nil {
		return err
	}

	payload := new(req.RespondFriendRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperror.Validation("RespondToRequest", "invalid request body")
	}

	edge, err := handler.FriendUsecase.RespondToRequest(c.UserContext(), userID, edgeID, payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.FriendResponse]{
		Message:    "Request updated",
		StatusCode: fiber.StatusOK,
		Data:       edge,
	})
}
