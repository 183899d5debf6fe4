package platform

import "encoding/json"

// Update is one inbound webhook event from the messaging platform: a
// command or chat message, or a button press.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

func (c Chat) IsGroup() bool {
	return c.Type == ChatTypeGroup || c.Type == ChatTypeSupergroup
}

type User struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineKeyboard is a grid of buttons attached to an outbound message.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// InlineButton carries either a callback payload or a URL, never both.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

func Keyboard(rows ...[]InlineButton) *InlineKeyboard {
	return &InlineKeyboard{InlineKeyboard: rows}
}

func Row(buttons ...InlineButton) []InlineButton {
	return buttons
}

// ChatMember is the membership record returned by getChatMember.
type ChatMember struct {
	Status string `json:"status"`
}

const (
	MemberStatusCreator       = "creator"
	MemberStatusAdministrator = "administrator"
	MemberStatusMember        = "member"
)

func (m ChatMember) IsAdmin() bool {
	return m.Status == MemberStatusCreator || m.Status == MemberStatusAdministrator
}

// AdminRights is the privilege set granted to the service identity inside a
// provisioned channel: enough to relay, manage membership, and mint invite
// links, but not to appoint further admins.
type AdminRights struct {
	ChangeInfo     bool `json:"change_info"`
	PostMessages   bool `json:"post_messages"`
	EditMessages   bool `json:"edit_messages"`
	DeleteMessages bool `json:"delete_messages"`
	BanUsers       bool `json:"ban_users"`
	InviteUsers    bool `json:"invite_users"`
	PinMessages    bool `json:"pin_messages"`
	AddAdmins      bool `json:"add_admins"`
	Anonymous      bool `json:"anonymous"`
	ManageCall     bool `json:"manage_call"`
}

func ServiceAdminRights() AdminRights {
	return AdminRights{
		ChangeInfo:     true,
		PostMessages:   true,
		EditMessages:   true,
		DeleteMessages: true,
		BanUsers:       true,
		InviteUsers:    true,
		PinMessages:    true,
		AddAdmins:      false,
		Anonymous:      false,
		ManageCall:     true,
	}
}

// apiEnvelope is the platform's uniform response wrapper.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
}
