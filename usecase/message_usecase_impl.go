package usecase

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"healthcare-chat/apperror"
	"healthcare-chat/dto"
	"healthcare-chat/dto/req"
	"healthcare-chat/dto/res"
	"healthcare-chat/entity"
	"healthcare-chat/repository"
)

type messageUsecase struct {
	db          *gorm.DB
	log         *logrus.Logger
	validate    *validator.Validate
	messages    *repository.MessageRepository
	chatUsecase ChatUsecase
	publisher   Publisher
}

func NewMessageUsecase(db *gorm.DB, logger *logrus.Logger, validate *validator.Validate, messageRepository *repository.MessageRepository, chatUC ChatUsecase, publisher Publisher) MessageUsecase {
	return &messageUsecase{
		db:          db,
		log:         logger,
		validate:    validate,
		messages:    messageRepository,
		chatUsecase: chatUC,
		publisher:   publisher,
	}
}

func (uc *messageUsecase) ensureParticipant(ctx context.Context, op string, userID, roomID int64) error {
	ok, err := uc.chatUsecase.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return apperror.Internal(op, err)
	}
	if !ok {
		// Non-participants cannot tell a foreign room from a missing one.
		return apperror.NotFound(op, "chat room not found")
	}
	return nil
}

func (uc *messageUsecase) GetMessages(ctx context.Context, userID, roomID int64) ([]res.MessageResponse, error) {
	if err := uc.ensureParticipant(ctx, "GetMessages", userID, roomID); err != nil {
		return nil, err
	}

	messages, err := uc.messages.FindByRoomID(ctx, uc.db, roomID)
	if err != nil {
		uc.log.WithError(err).Errorf("Failed to get messages of room %d", roomID)
		return nil, apperror.Internal("GetMessages", err)
	}

	responses := make([]res.MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, toMessageResponse(message))
	}
	return responses, nil
}

func (uc *messageUsecase) SendMessage(ctx context.Context, userID, roomID int64, request *req.MessageRequest) (res.MessageResponse, bool, error) {
	request.Content = strings.TrimSpace(request.Content)
	request.ClientRef = strings.TrimSpace(request.ClientRef)
	if err := uc.validate.Struct(request); err != nil {
		return res.MessageResponse{}, false, apperror.Wrap(apperror.KindValidation, "SendMessage", err)
	}
	if err := uc.ensureParticipant(ctx, "SendMessage", userID, roomID); err != nil {
		return res.MessageResponse{}, false, err
	}

	if request.ClientRef != "" {
		existing, err := uc.messages.FindByClientRef(ctx, uc.db, roomID, userID, request.ClientRef)
		if err != nil {
			return res.MessageResponse{}, false, apperror.Internal("SendMessage", err)
		}
		if existing != nil {
			uc.log.Infof("Replayed message %d for client_ref %s", existing.ID, request.ClientRef)
			return toMessageResponse(*existing), false, nil
		}
	}

	message := entity.Message{
		RoomID:   roomID,
		SenderID: userID,
		Content:  request.Content,
	}
	if request.ClientRef != "" {
		clientRef := request.ClientRef
		message.ClientRef = &clientRef
	}

	if err := uc.messages.Save(ctx, uc.db, &message); err != nil {
		if request.ClientRef != "" {
			// lost a race against a retry carrying the same client_ref
			existing, findErr := uc.messages.FindByClientRef(ctx, uc.db, roomID, userID, request.ClientRef)
			if findErr == nil && existing != nil {
				return toMessageResponse(*existing), false, nil
			}
		}
		uc.log.WithError(err).Errorf("Failed to save message in room %d", roomID)
		return res.MessageResponse{}, false, apperror.Internal("SendMessage", err)
	}

	stored, err := uc.messages.FindWithSender(ctx, uc.db, message.ID)
	if err != nil {
		return res.MessageResponse{}, false, apperror.Internal("SendMessage", err)
	}
	response := toMessageResponse(*stored)

	if uc.publisher != nil {
		uc.publisher.Publish(dto.BroadcastMessage{
			Type:    dto.BroadcastTypeMessage,
			RoomID:  roomID,
			Message: response,
		})
	}
	return response, true, nil
}
