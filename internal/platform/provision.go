package platform

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
)

// Provisioner creates a private two-party channel: the provisioning account
// opens it with the service identity and the target human inside, promotes
// the service identity to admin, then leaves, so the terminal membership is
// exactly {human, service identity}.
//
// Each step is a remote call and any failure aborts the whole provisioning.
// There is no rollback of a channel already created on the platform; the
// orchestrator's orphan policy deals with the aftermath.
type Provisioner struct {
	account *api
	bot     *Client

	mu    sync.Mutex
	botID int64
}

func NewProvisioner(accountAPIBase, accountToken string, bot *Client) *Provisioner {
	return &Provisioner{
		account: newAPI(accountAPIBase, accountToken, nil),
		bot:     bot,
	}
}

// NewProvisionerWithHTTP substitutes the account-API transport, used by tests.
func NewProvisionerWithHTTP(accountAPIBase, accountToken string, bot *Client, httpClient *http.Client) *Provisioner {
	return &Provisioner{
		account: newAPI(accountAPIBase, accountToken, httpClient),
		bot:     bot,
	}
}

type createChatResult struct {
	ChatID int64 `json:"chat_id"`
}

type migrateChatResult struct {
	ChannelID int64 `json:"channel_id"`
}

// Provision runs the full channel state machine and returns the terminal
// channel id. title is the only label the channel carries; the caller is
// responsible for it being identity-free.
func (p *Provisioner) Provision(ctx context.Context, targetUserID int64, title string) (int64, error) {
	botID, err := p.serviceIdentity(ctx)
	if err != nil {
		return 0, apperrors.ProvisioningFailed("resolve service identity", err)
	}

	var created createChatResult
	err = p.account.call(ctx, "createChat", map[string]any{
		"title":    title,
		"user_ids": []int64{botID, targetUserID},
	}, &created)
	if err != nil {
		return 0, apperrors.ProvisioningFailed("create", err)
	}

	log.Info().Int64("chatId", created.ChatID).Msg("channel created")

	// Basic chats cannot carry admin rights or invite links; upgrade and
	// adopt the new id.
	var migrated migrateChatResult
	err = p.account.call(ctx, "migrateChat", map[string]int64{
		"chat_id": created.ChatID,
	}, &migrated)
	if err != nil {
		return 0, apperrors.ProvisioningFailed("migrate", err)
	}
	channelID := migrated.ChannelID

	err = p.account.call(ctx, "promoteAdmin", map[string]any{
		"channel_id": channelID,
		"user_id":    botID,
		"rights":     ServiceAdminRights(),
		"rank":       "Admin",
	}, nil)
	if err != nil {
		return 0, apperrors.ProvisioningFailed("promote", err)
	}

	// The provisioning account is not one of the two intended members.
	err = p.account.call(ctx, "leaveChat", map[string]int64{
		"channel_id": channelID,
	}, nil)
	if err != nil {
		return 0, apperrors.ProvisioningFailed("cleanup", err)
	}

	log.Info().Int64("channelId", channelID).Msg("channel provisioned")
	return channelID, nil
}

// InviteLink mints the invite artifact for a provisioned channel. The
// service identity must already hold admin rights there; anything else
// means provisioning did not finish.
func (p *Provisioner) InviteLink(ctx context.Context, channelID int64) (string, error) {
	botID, err := p.serviceIdentity(ctx)
	if err != nil {
		return "", apperrors.ProvisioningFailed("resolve service identity", err)
	}

	member, err := p.bot.GetChatMember(ctx, channelID, botID)
	if err != nil {
		return "", apperrors.ProvisioningFailed("invite link", err)
	}
	if !member.IsAdmin() {
		return "", apperrors.ProvisioningFailed("invite link",
			fmt.Errorf("service identity is %q in channel %d, admin required", member.Status, channelID))
	}

	link, err := p.bot.CreateInviteLink(ctx, channelID, "Auto-generated invite link")
	if err != nil {
		return "", apperrors.ProvisioningFailed("invite link", err)
	}
	return link, nil
}

func (p *Provisioner) serviceIdentity(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.botID != 0 {
		return p.botID, nil
	}
	id, err := p.bot.Me(ctx)
	if err != nil {
		return 0, err
	}
	p.botID = id
	return id, nil
}
