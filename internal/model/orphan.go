package model

import "time"

// OrphanedPair records a session start whose platform channels were created
// but whose pairing registration failed: the channels exist, nothing routes
// to them, and an operator has to reconcile by hand.
type OrphanedPair struct {
	ID                 string     `db:"id" json:"id"`
	UserAlias          string     `db:"user_alias" json:"userAlias"`
	CounselorID        int64      `db:"counselor_id" json:"counselorId"`
	UserChannelID      int64      `db:"user_channel_id" json:"userChannelId"`
	CounselorChannelID int64      `db:"counselor_channel_id" json:"counselorChannelId"`
	FailureReason      string     `db:"failure_reason" json:"failureReason"`
	ReconciledAt       *time.Time `db:"reconciled_at" json:"reconciledAt,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
}

type CreateOrphanedPairParams struct {
	UserAlias          string
	CounselorID        int64
	UserChannelID      int64
	CounselorChannelID int64
	FailureReason      string
}
