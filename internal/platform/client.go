// Package platform talks to the messaging platform: the bot-credential API
// used for sending and channel administration, and the account-credential
// API the provisioner uses to create channels it later walks away from.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/config"
	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
)

const ParseModeMarkdown = "Markdown"

// api posts JSON method calls to one platform surface and unwraps the
// {ok, result, description} envelope.
type api struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPI(baseURL, token string, client *http.Client) *api {
	if client == nil {
		client = &http.Client{Timeout: config.PlatformRequestTimeout}
	}
	return &api{baseURL: baseURL, token: token, client: client}
}

func (a *api) call(ctx context.Context, method string, params any, out any) error {
	var body []byte
	if params != nil {
		var err error
		body, err = json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return apperrors.Platform(method, err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperrors.Platform(method, fmt.Errorf("decode response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = "no description"
		}
		return apperrors.Platform(method, fmt.Errorf("status %d: %s", resp.StatusCode, desc))
	}

	log.Debug().
		Str("method", method).
		Dur("elapsed", time.Since(start)).
		Msg("platform call")

	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return apperrors.Platform(method, fmt.Errorf("decode result: %w", err))
		}
	}
	return nil
}

// Client is the bot-credential surface: the service identity that stays in
// every channel and does all the relaying.
type Client struct {
	api *api
}

func NewClient(baseURL, botToken string) *Client {
	return &Client{api: newAPI(baseURL, botToken, nil)}
}

// NewClientWithHTTP substitutes the transport, used by tests.
func NewClientWithHTTP(baseURL, botToken string, httpClient *http.Client) *Client {
	return &Client{api: newAPI(baseURL, botToken, httpClient)}
}

type sendMessageParams struct {
	ChatID      int64           `json:"chat_id"`
	Text        string          `json:"text"`
	ParseMode   string          `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboard `json:"reply_markup,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error {
	return c.api.call(ctx, "sendMessage", sendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   ParseModeMarkdown,
		ReplyMarkup: keyboard,
	}, nil)
}

type editMessageParams struct {
	ChatID      int64           `json:"chat_id"`
	MessageID   int64           `json:"message_id"`
	Text        string          `json:"text"`
	ParseMode   string          `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboard `json:"reply_markup,omitempty"`
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboard) error {
	return c.api.call(ctx, "editMessageText", editMessageParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   ParseModeMarkdown,
		ReplyMarkup: keyboard,
	}, nil)
}

// AnswerCallback acknowledges a button press so the client stops showing a
// spinner. Failures are not fatal to the handling of the press itself.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.api.call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackID,
	}, nil)
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	var member ChatMember
	err := c.api.call(ctx, "getChatMember", map[string]int64{
		"chat_id": chatID,
		"user_id": userID,
	}, &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

type inviteLinkResult struct {
	InviteLink string `json:"invite_link"`
}

func (c *Client) CreateInviteLink(ctx context.Context, chatID int64, name string) (string, error) {
	var result inviteLinkResult
	err := c.api.call(ctx, "createChatInviteLink", map[string]any{
		"chat_id": chatID,
		"name":    name,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.InviteLink, nil
}

type meResult struct {
	ID int64 `json:"id"`
}

// Me returns the service identity's own platform user id.
func (c *Client) Me(ctx context.Context) (int64, error) {
	var result meResult
	if err := c.api.call(ctx, "getMe", nil, &result); err != nil {
		return 0, err
	}
	return result.ID, nil
}

func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.api.call(ctx, "setWebhook", map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}, nil)
}

// DeleteChat tears a channel down. Only the compensating-cleanup policy of
// the orchestrator uses it.
func (c *Client) DeleteChat(ctx context.Context, chatID int64) error {
	return c.api.call(ctx, "deleteChat", map[string]int64{
		"chat_id": chatID,
	}, nil)
}
