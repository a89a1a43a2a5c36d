package config

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/handler"
	"healthcare-chat/middleware"
	"healthcare-chat/repository"
	"healthcare-chat/routes"
	"healthcare-chat/usecase"
)

type AppConfig struct {
	*fiber.App
	*validator.Validate
	*logrus.Logger
	*DBConfig
	*common.Config
	*middleware.Middleware
}

// NewAppConfig opens the database and builds the shared server dependencies.
func NewAppConfig(cfg *common.Config, log *logrus.Logger, appLog *logger.AppLogger) *AppConfig {
	return &AppConfig{
		App:        NewFiber(cfg),
		Validate:   NewValidator(),
		Logger:     log,
		DBConfig:   NewDB(cfg, appLog),
		Config:     cfg,
		Middleware: middleware.NewMiddleware(cfg, log),
	}
}

func RunServer() {
	newConfig := common.NewViper()
	log := NewLogger(newConfig.Viper.GetString("LOG_LEVEL"))
	appLog := logger.NewLogger(newConfig.Viper.GetString("LOG_DIR"))
	appConfig := NewAppConfig(newConfig, log, appLog)
	app := appConfig.App
	serverConfig := newConfig.GetServerConfig()

	app.Use(cors.New(cors.Config{
		AllowOrigins: serverConfig.AllowOrigins,
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	wsHandler := App(appConfig)
	defer wsHandler.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.WithError(err).Error("Failed to shut down server")
		}
	}()

	if err := app.Listen(serverConfig.Addr); err != nil {
		log.WithError(err).Errorf("Failed to start server: %v", err)
	}
}

// App wires repositories, usecases and handlers onto aC.App. The returned
// websocket handler must be closed on shutdown.
func App(aC *AppConfig) *handler.WebSocketHandler {
	newUserRepository := repository.NewUserRepository()
	newChatRepository := repository.NewChatRepository()
	newMessageRepository := repository.NewMessageRepository()
	newFriendRepository := repository.NewFriendRepository()

	newUserUsecase := usecase.NewUserUsecase(newUserRepository, aC.Validate, aC.GetDB(), aC.DBConfig.AppLogger)
	newChatUsecase := usecase.NewChatUsecase(newChatRepository, newUserRepository, aC.Logger, aC.GetDB())
	wsHandler := handler.NewWebSocketHandler(aC.Logger, newChatUsecase)
	newMessageUsecase := usecase.NewMessageUsecase(aC.GetDB(), aC.Logger, aC.Validate, newMessageRepository, newChatUsecase, wsHandler)
	newFriendUsecase := usecase.NewFriendUsecase(newFriendRepository, newUserRepository, aC.Validate, aC.GetDB(), aC.Logger)

	route := routes.ConfigRoute{
		App:           aC.App,
		Middleware:    aC.Middleware,
		UserHandler:   handler.NewUserHandler(newUserUsecase, aC.Logger),
		ChatHandler:   handler.NewChatHandler(newChatUsecase, newMessageUsecase, aC.Logger),
		FriendHandler: handler.NewFriendHandler(newFriendUsecase, aC.Logger),
	}
	route.GetRoute()
	route.GetWebSocketRoute(wsHandler)
	return wsHandler
}
