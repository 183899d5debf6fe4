// Package service holds the two workflows of this system: starting a
// counseling session and relaying messages between its paired channels.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/identity"
	"github.com/veilcare/counsel-relay-go/internal/model"
)

// SessionBackend is the slice of the core-API client the orchestrator uses.
type SessionBackend interface {
	GetCounselor(ctx context.Context, id int64) (*model.Counselor, error)
	GetOrCreateAlias(ctx context.Context, hashedUserID string) (string, error)
	RegisterChannelPair(ctx context.Context, params model.RegisterChannelPairParams) error
}

// ChannelProvisioner creates the per-party channels on the platform.
type ChannelProvisioner interface {
	Provision(ctx context.Context, targetUserID int64, title string) (int64, error)
	InviteLink(ctx context.Context, channelID int64) (string, error)
}

// ChannelRemover tears a channel down; used only when the compensating
// cleanup policy is enabled.
type ChannelRemover interface {
	DeleteChat(ctx context.Context, chatID int64) error
}

// OrphanLedger records channel pairs that exist on the platform but never
// got a routing record, for operator reconciliation.
type OrphanLedger interface {
	Record(ctx context.Context, params model.CreateOrphanedPairParams) error
}

type Orchestrator struct {
	backend     SessionBackend
	provisioner ChannelProvisioner
	hasher      *identity.Hasher
	remover     ChannelRemover
	ledger      OrphanLedger

	// cleanupOnRegisterFailure switches the orphan policy: true deletes the
	// stranded channels best-effort, false records them for manual
	// reconciliation.
	cleanupOnRegisterFailure bool
}

func NewOrchestrator(
	backend SessionBackend,
	provisioner ChannelProvisioner,
	hasher *identity.Hasher,
	remover ChannelRemover,
	ledger OrphanLedger,
	cleanupOnRegisterFailure bool,
) *Orchestrator {
	return &Orchestrator{
		backend:                  backend,
		provisioner:              provisioner,
		hasher:                   hasher,
		remover:                  remover,
		ledger:                   ledger,
		cleanupOnRegisterFailure: cleanupOnRegisterFailure,
	}
}

// StartSession provisions the two channels of a counseling session and
// registers their pairing with the core API.
//
// The alias is resolved before either channel is created: both channel
// titles are built from identity-free labels (the alias on the counselor
// side, the counselor's public name on the user side), so the order is
// load-bearing, not cosmetic.
func (o *Orchestrator) StartSession(ctx context.Context, realUserID, counselorID int64) (*model.Session, error) {
	counselor, err := o.backend.GetCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	alias, err := o.backend.GetOrCreateAlias(ctx, o.hasher.HashInt64(realUserID))
	if err != nil {
		return nil, err
	}

	counselorChannelID, err := o.provisioner.Provision(ctx, counselor.PlatformUserID,
		fmt.Sprintf("Counseling with %s", alias))
	if err != nil {
		return nil, err
	}

	userChannelID, err := o.provisioner.Provision(ctx, realUserID,
		fmt.Sprintf("Counseling with %s", counselor.Name))
	if err != nil {
		return nil, err
	}

	userChannelLink, err := o.provisioner.InviteLink(ctx, userChannelID)
	if err != nil {
		return nil, err
	}

	err = o.backend.RegisterChannelPair(ctx, model.RegisterChannelPairParams{
		UserAlias:          alias,
		UserChannelLink:    userChannelLink,
		UserChannelID:      userChannelID,
		CounselorID:        counselorID,
		CounselorChannelID: counselorChannelID,
	})
	if err != nil {
		o.handleRegisterFailure(ctx, alias, counselorID, userChannelID, counselorChannelID, err)
		return nil, apperrors.OrphanedChannels(err)
	}

	log.Info().
		Int64("counselorId", counselorID).
		Int64("counselorChannelId", counselorChannelID).
		Int64("userChannelId", userChannelID).
		Str("alias", alias).
		Msg("counseling session started")

	return &model.Session{
		CounselorChannelID: counselorChannelID,
		UserChannelID:      userChannelID,
		UserChannelLink:    userChannelLink,
	}, nil
}

func (o *Orchestrator) handleRegisterFailure(ctx context.Context, alias string, counselorID, userChannelID, counselorChannelID int64, cause error) {
	log.Error().Err(cause).
		Int64("userChannelId", userChannelID).
		Int64("counselorChannelId", counselorChannelID).
		Msg("channel pair registration failed after provisioning")

	if o.cleanupOnRegisterFailure {
		for _, channelID := range []int64{userChannelID, counselorChannelID} {
			if err := o.remover.DeleteChat(ctx, channelID); err != nil {
				log.Error().Err(err).Int64("channelId", channelID).Msg("compensating channel deletion failed")
			}
		}
		return
	}

	if o.ledger == nil {
		log.Warn().Msg("orphaned-pair ledger not configured, incident only logged")
		return
	}

	err := o.ledger.Record(ctx, model.CreateOrphanedPairParams{
		UserAlias:          alias,
		CounselorID:        counselorID,
		UserChannelID:      userChannelID,
		CounselorChannelID: counselorChannelID,
		FailureReason:      cause.Error(),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record orphaned pair")
	}
}
