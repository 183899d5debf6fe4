package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/config"
	"github.com/veilcare/counsel-relay-go/internal/identity"
	"github.com/veilcare/counsel-relay-go/internal/model"
	"github.com/veilcare/counsel-relay-go/internal/platform"
	"github.com/veilcare/counsel-relay-go/internal/util"
)

const welcomeMessage = "Welcome.\nYour anonymous alias is *%s*.\n\nSelect a counselor:"

// BackendDirectory is the read side of the core API the handler uses for
// menus and counselor cards.
type BackendDirectory interface {
	GetOrCreateAlias(ctx context.Context, hashedUserID string) (string, error)
	ListCounselors(ctx context.Context) ([]model.CounselorInfo, error)
	GetCounselor(ctx context.Context, id int64) (*model.Counselor, error)
	LookupGroupLink(ctx context.Context, hashedUserID string, counselorID int64) (string, error)
}

// SessionStarter runs the start-session workflow.
type SessionStarter interface {
	StartSession(ctx context.Context, realUserID, counselorID int64) (*model.Session, error)
}

// MessageRelay forwards channel messages to their paired channel.
type MessageRelay interface {
	HandleGroupMessage(ctx context.Context, channelID int64, text string) error
}

// Messenger is the outbound slice of the platform client the handler uses.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *platform.InlineKeyboard) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *platform.InlineKeyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

type WebhookHandler struct {
	hasher    *identity.Hasher
	backend   BackendDirectory
	sessions  SessionStarter
	relay     MessageRelay
	messenger Messenger
}

func NewWebhookHandler(
	hasher *identity.Hasher,
	backend BackendDirectory,
	sessions SessionStarter,
	relay MessageRelay,
	messenger Messenger,
) *WebhookHandler {
	return &WebhookHandler{
		hasher:    hasher,
		backend:   backend,
		sessions:  sessions,
		relay:     relay,
		messenger: messenger,
	}
}

// Webhook receives one platform update per request. The platform retries
// non-200 responses aggressively, so handling failures are reported to the
// originating chat and logged, and the delivery is still acknowledged.
func (h *WebhookHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.WebhookMaxBodyBytes)

	var update platform.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("invalid webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	ctx := r.Context()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	default:
		log.Debug().Int64("updateId", update.UpdateID).Msg("update carries nothing to handle")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *WebhookHandler) handleMessage(ctx context.Context, msg *platform.Message) {
	switch {
	case msg.Chat.Type == platform.ChatTypePrivate && msg.Text == "/start":
		h.handleStart(ctx, msg)
	case msg.Chat.IsGroup():
		if msg.Text == "" {
			return
		}
		if err := h.relay.HandleGroupMessage(ctx, msg.Chat.ID, msg.Text); err != nil {
			log.Error().Err(err).Int64("channelId", msg.Chat.ID).Msg("relay failed")
			h.apologize(ctx, msg.Chat.ID)
		}
	default:
		log.Debug().Str("chatType", msg.Chat.Type).Msg("message dropped, no handler")
	}
}

// handleStart greets a new or returning user with their alias and the
// counselor menu.
func (h *WebhookHandler) handleStart(ctx context.Context, msg *platform.Message) {
	text, keyboard, err := h.buildHome(ctx, msg.Chat.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to build start response")
		h.apologize(ctx, msg.Chat.ID)
		return
	}

	if err := h.messenger.SendMessage(ctx, msg.Chat.ID, text, keyboard); err != nil {
		log.Error().Err(err).Msg("failed to send start response")
	}
}

func (h *WebhookHandler) buildHome(ctx context.Context, userID int64) (string, *platform.InlineKeyboard, error) {
	alias, err := h.backend.GetOrCreateAlias(ctx, h.hasher.HashInt64(userID))
	if err != nil {
		return "", nil, err
	}

	counselors, err := h.backend.ListCounselors(ctx)
	if err != nil {
		return "", nil, err
	}

	rows := make([][]platform.InlineButton, 0, len(counselors))
	for _, c := range counselors {
		rows = append(rows, platform.Row(platform.InlineButton{
			Text:         c.Name,
			CallbackData: selectCallback(c.ID),
		}))
	}

	return welcomeText(alias), platform.Keyboard(rows...), nil
}

func (h *WebhookHandler) apologize(ctx context.Context, chatID int64) {
	err := h.messenger.SendMessage(ctx, chatID, "Something went wrong. Please try again later.", nil)
	if err != nil {
		// chatID is the real platform user id when the chat is private, so
		// it never reaches the log in clear.
		log.Error().Err(err).
			Str("chatId", util.MaskIdentifier(strconv.FormatInt(chatID, 10))).
			Msg("failed to send failure notice")
	}
}
