package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
)

// fakePlatform scripts both platform surfaces and records the order of
// method calls.
type fakePlatform struct {
	t        *testing.T
	calls    []string
	params   map[string]map[string]any
	failOn   string
	botAdmin bool
}

func newFakePlatform(t *testing.T) *fakePlatform {
	return &fakePlatform{t: t, params: map[string]map[string]any{}, botAdmin: true}
}

func (f *fakePlatform) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/")
		f.calls = append(f.calls, method)

		var params map[string]any
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&params)
		}
		f.params[method] = params

		if method == f.failOn {
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "scripted failure"})
			return
		}

		var result any
		switch method {
		case "getMe":
			result = map[string]int64{"id": 42}
		case "createChat":
			result = map[string]int64{"chat_id": 777}
		case "migrateChat":
			result = map[string]int64{"channel_id": 1777}
		case "getChatMember":
			status := MemberStatusAdministrator
			if !f.botAdmin {
				status = MemberStatusMember
			}
			result = map[string]string{"status": status}
		case "createChatInviteLink":
			result = map[string]string{"invite_link": "https://platform/invite/xyz"}
		}

		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}
}

func newTestProvisioner(t *testing.T) (*Provisioner, *fakePlatform) {
	t.Helper()
	fake := newFakePlatform(t)
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	bot := NewClientWithHTTP(srv.URL, "bot-token", srv.Client())
	p := NewProvisionerWithHTTP(srv.URL, "account-token", bot, srv.Client())
	return p, fake
}

func TestProvision(t *testing.T) {
	t.Run("runs the steps in order and returns the migrated id", func(t *testing.T) {
		p, fake := newTestProvisioner(t)

		channelID, err := p.Provision(context.Background(), 9001, "Counseling with anon-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1777), channelID)
		assert.Equal(t, []string{"getMe", "createChat", "migrateChat", "promoteAdmin", "leaveChat"}, fake.calls)
	})

	t.Run("creates the chat with both intended members and the title", func(t *testing.T) {
		p, fake := newTestProvisioner(t)

		_, err := p.Provision(context.Background(), 9001, "Counseling with anon-1")
		require.NoError(t, err)

		created := fake.params["createChat"]
		assert.Equal(t, "Counseling with anon-1", created["title"])
		assert.ElementsMatch(t, []any{float64(42), float64(9001)}, created["user_ids"])
	})

	t.Run("promotes the service identity on the migrated channel", func(t *testing.T) {
		p, fake := newTestProvisioner(t)

		_, err := p.Provision(context.Background(), 9001, "x")
		require.NoError(t, err)

		promoted := fake.params["promoteAdmin"]
		assert.Equal(t, float64(1777), promoted["channel_id"])
		assert.Equal(t, float64(42), promoted["user_id"])

		rights, ok := promoted["rights"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, rights["invite_users"])
		assert.Equal(t, false, rights["add_admins"])
	})

	t.Run("aborts on step failure without later steps", func(t *testing.T) {
		for _, step := range []string{"createChat", "migrateChat", "promoteAdmin", "leaveChat"} {
			t.Run(step, func(t *testing.T) {
				p, fake := newTestProvisioner(t)
				fake.failOn = step

				_, err := p.Provision(context.Background(), 9001, "x")
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeProvisioningFailed, apperrors.GetCode(err))
				assert.Equal(t, step, fake.calls[len(fake.calls)-1])
			})
		}
	})

	t.Run("resolves the service identity only once", func(t *testing.T) {
		p, fake := newTestProvisioner(t)

		_, err := p.Provision(context.Background(), 9001, "a")
		require.NoError(t, err)
		_, err = p.Provision(context.Background(), 9002, "b")
		require.NoError(t, err)

		var meCalls int
		for _, c := range fake.calls {
			if c == "getMe" {
				meCalls++
			}
		}
		assert.Equal(t, 1, meCalls)
	})
}

func TestInviteLink(t *testing.T) {
	t.Run("checks admin status then mints the link", func(t *testing.T) {
		p, fake := newTestProvisioner(t)

		link, err := p.InviteLink(context.Background(), 1777)
		require.NoError(t, err)
		assert.Equal(t, "https://platform/invite/xyz", link)
		assert.Equal(t, []string{"getMe", "getChatMember", "createChatInviteLink"}, fake.calls)
	})

	t.Run("refuses when the service identity is not admin", func(t *testing.T) {
		p, fake := newTestProvisioner(t)
		fake.botAdmin = false

		_, err := p.InviteLink(context.Background(), 1777)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeProvisioningFailed, apperrors.GetCode(err))
		assert.NotContains(t, fake.calls, "createChatInviteLink")
	})
}
