package config

import (
	"github.com/gofiber/fiber/v2"
	"healthcare-chat/config/common"
	"healthcare-chat/handler"
)

func NewFiber(cfg *common.Config) *fiber.App {
	appName := cfg.GetAppConfig()
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		ErrorHandler:  handler.ErrorHandler,
	})
}
