package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"healthcare-chat/apperror"
	"healthcare-chat/dto/res"
)

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation: fiber.StatusBadRequest,
	apperror.KindConflict:   fiber.StatusConflict,
	apperror.KindAuth:       fiber.StatusUnauthorized,
	apperror.KindNotFound:   fiber.StatusNotFound,
	apperror.KindNetwork:    fiber.StatusBadGateway,
	apperror.KindInternal:   fiber.StatusInternalServerError,
}

// ErrorHandler renders every error returned by a handler as res.ErrorResponse.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := string(apperror.KindInternal)
	message := err.Error()

	var fiberErr *fiber.Error
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		code = kindStatus[appErr.Kind]
		kind = string(appErr.Kind)
		if appErr.Message != "" {
			message = appErr.Message
		}
		if appErr.Kind == apperror.KindInternal {
			message = "internal server error"
		}
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		kind = ""
		message = fiberErr.Message
	}

	return ctx.Status(code).JSON(res.ErrorResponse{
		Status:     statusText(code),
		StatusCode: code,
		Code:       kind,
		Error:      message,
	})
}

func statusText(code int) string {
	if text := utils.StatusMessage(code); text != "" {
		return text
	}
	return strconv.Itoa(code)
}

func currentUserID(ctx *fiber.Ctx) (int64, error) {
	userID, ok := ctx.Locals("user_id").(int64)
	if !ok || userID <= 0 {
		return 0, apperror.Auth("currentUser", "missing user")
	}
	return userID, nil
}

func paramID(ctx *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("params", name+" must be a positive integer")
	}
	return id, nil
}
