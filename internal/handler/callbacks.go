package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/platform"
)

const (
	actionSelect = "select"
	actionStart  = "start"
	actionHome   = "home"
)

// Callback is a parsed button press: select a counselor, start a session
// with one, or go back to the home menu.
type Callback struct {
	Action      string
	CounselorID int64
}

func selectCallback(counselorID int64) string {
	return fmt.Sprintf("select:%d", counselorID)
}

func startCallback(counselorID int64) string {
	return fmt.Sprintf("start:%d", counselorID)
}

func parseCallback(data string) *Callback {
	if data == actionHome {
		return &Callback{Action: actionHome}
	}

	action, rawID, found := strings.Cut(data, ":")
	if !found || (action != actionSelect && action != actionStart) {
		return nil
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}

	return &Callback{Action: action, CounselorID: id}
}

func (h *WebhookHandler) handleCallback(ctx context.Context, query *platform.CallbackQuery) {
	// Acknowledge first so the client stops its spinner even if the work
	// below fails.
	if err := h.messenger.AnswerCallback(ctx, query.ID); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback query")
	}

	if query.Message == nil {
		log.Warn().Str("callbackId", query.ID).Msg("callback query without message dropped")
		return
	}

	cb := parseCallback(query.Data)
	if cb == nil {
		log.Warn().Str("data", query.Data).Msg("unexpected callback data dropped")
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	var err error
	switch cb.Action {
	case actionSelect:
		err = h.showCounselorCard(ctx, query.From.ID, cb.CounselorID, chatID, messageID)
	case actionStart:
		err = h.startSession(ctx, query.From.ID, cb.CounselorID, chatID, messageID)
	case actionHome:
		err = h.showHome(ctx, query.From.ID, chatID, messageID)
	}

	if err != nil {
		log.Error().Err(err).Str("action", cb.Action).Msg("callback handling failed")
		h.apologize(ctx, chatID)
	}
}

// showCounselorCard renders a counselor's profile. A user with an existing
// session gets the invite link straight away; otherwise a start button.
func (h *WebhookHandler) showCounselorCard(ctx context.Context, userID, counselorID, chatID, messageID int64) error {
	counselor, err := h.backend.GetCounselor(ctx, counselorID)
	if err != nil {
		return err
	}

	link, err := h.backend.LookupGroupLink(ctx, h.hasher.HashInt64(userID), counselorID)
	if err != nil {
		return err
	}

	var primary platform.InlineButton
	if link != "" {
		primary = platform.InlineButton{Text: "Open Chat", URL: link}
	} else {
		primary = platform.InlineButton{Text: "Start Session", CallbackData: startCallback(counselorID)}
	}

	keyboard := platform.Keyboard(
		platform.Row(primary),
		platform.Row(platform.InlineButton{Text: "Back to Home", CallbackData: actionHome}),
	)

	text := fmt.Sprintf("*%s*\n\n%s", counselor.Name, counselor.Bio)
	return h.messenger.EditMessageText(ctx, chatID, messageID, text, keyboard)
}

func (h *WebhookHandler) startSession(ctx context.Context, userID, counselorID, chatID, messageID int64) error {
	session, err := h.sessions.StartSession(ctx, userID, counselorID)
	if err != nil {
		return err
	}

	keyboard := platform.Keyboard(
		platform.Row(platform.InlineButton{Text: "Open Chat", URL: session.UserChannelLink}),
		platform.Row(platform.InlineButton{Text: "Back to Home", CallbackData: actionHome}),
	)

	return h.messenger.EditMessageText(ctx, chatID, messageID,
		"Your counseling session is ready.\n\nClick the button below to open the chat.", keyboard)
}

func (h *WebhookHandler) showHome(ctx context.Context, userID, chatID, messageID int64) error {
	text, keyboard, err := h.buildHome(ctx, userID)
	if err != nil {
		return err
	}
	return h.messenger.EditMessageText(ctx, chatID, messageID, text, keyboard)
}

func welcomeText(alias string) string {
	return fmt.Sprintf(welcomeMessage, alias)
}
