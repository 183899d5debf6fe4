package model

// Session is the result of a successful start-session workflow: two freshly
// provisioned channels plus the invite link handed to the user.
type Session struct {
	CounselorChannelID int64
	UserChannelID      int64
	UserChannelLink    string
}

// Routing is the answer to "a message arrived in this channel, where does it
// go": the paired channel and the display name to prefix the forward with.
type Routing struct {
	TargetChannelID int64  `json:"target_group_id"`
	DisplayName     string `json:"display_name"`
}

// RegisterChannelPairParams is the one-shot pairing record registered with
// the core API after both channels exist.
type RegisterChannelPairParams struct {
	UserAlias          string `json:"user_alias"`
	UserChannelLink    string `json:"user_group_link"`
	UserChannelID      int64  `json:"user_group_id"`
	CounselorID        int64  `json:"counselor_id"`
	CounselorChannelID int64  `json:"counselor_group_id"`
}
