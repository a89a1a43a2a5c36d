// Command seed creates demo users and prints a bearer token for each, so the
// client can be tried without an identity provider.
package main

import (
	"context"
	"fmt"

	"healthcare-chat/config"
	"healthcare-chat/config/common"
	"healthcare-chat/config/logger"
	"healthcare-chat/entity"
	"healthcare-chat/enum"
	"healthcare-chat/repository"
	"healthcare-chat/security"
	"healthcare-chat/usecase"
)

var demoUsers = []struct {
	username string
	email    string
	userType enum.UserType
}{
	{"dr-ana", "ana@clinic.test", enum.UserTypeDoctor},
	{"budi", "budi@mail.test", enum.UserTypePatient},
	{"citra", "citra@mail.test", enum.UserTypePatient},
}

func main() {
	cfg := common.NewViper()
	log := config.NewLogger(cfg.Viper.GetString("LOG_LEVEL"))
	db := config.NewDB(cfg, logger.NewLogger(cfg.Viper.GetString("LOG_DIR")))

	userUsecase := usecase.NewUserUsecase(repository.NewUserRepository(), config.NewValidator(), db.GetDB(), db.AppLogger)
	jwtIssuer := security.NewJWT(cfg)

	for _, demo := range demoUsers {
		user, err := userUsecase.EnsureUser(context.Background(), demo.username, demo.email, demo.userType)
		if err != nil {
			log.WithError(err).Fatalf("Failed to seed user %s", demo.username)
		}
		token, err := jwtIssuer.GenerateToken(&entity.User{BaseEntity: entity.BaseEntity{ID: user.ID}, Username: user.Username, Type: user.Type})
		if err != nil {
			log.WithError(err).Fatalf("Failed to sign token for %s", demo.username)
		}
		fmt.Printf("%-8s id=%-4d type=%-8s token=%s\n", user.Username, user.ID, user.Type, token)
	}
}
