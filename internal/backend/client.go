// Package backend is the typed client for the core API: alias issuance,
// counselor reads, and the channel-pair routing records. Every call goes
// through the authenticated gateway; this layer only shapes requests and
// maps responses.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
	"github.com/veilcare/counsel-relay-go/internal/gateway"
	"github.com/veilcare/counsel-relay-go/internal/model"
)

// Doer is the slice of the gateway the client depends on.
type Doer interface {
	Do(ctx context.Context, method, url string, body any, opts ...gateway.RequestOption) (*gateway.Response, error)
}

type Client struct {
	baseURL string
	gw      Doer
}

func NewClient(baseURL string, gw Doer) *Client {
	return &Client{baseURL: baseURL, gw: gw}
}

type aliasRequest struct {
	HashedUserID string `json:"hashed_user_id"`
}

type aliasResponse struct {
	Alias string `json:"alias"`
}

type groupLinkRequest struct {
	HashedUserID string `json:"hashed_user_id"`
	CounselorID  int64  `json:"counselor_id"`
}

type groupLinkResponse struct {
	GroupLink string `json:"group_link"`
}

type resolveRequest struct {
	GroupID int64 `json:"group_id"`
}

// GetOrCreateAlias returns the stable pseudonym for a hashed user id,
// creating it server-side on first contact. Idempotent: the same hashed id
// always resolves to the same alias.
func (c *Client) GetOrCreateAlias(ctx context.Context, hashedUserID string) (string, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, c.baseURL+"/aliases", aliasRequest{HashedUserID: hashedUserID})
	if err != nil {
		return "", err
	}
	var body aliasResponse
	if err := decode(resp, "create alias", &body); err != nil {
		return "", err
	}
	return body.Alias, nil
}

func (c *Client) ListCounselors(ctx context.Context) ([]model.CounselorInfo, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, c.baseURL+"/counselors", nil)
	if err != nil {
		return nil, err
	}
	var counselors []model.CounselorInfo
	if err := decode(resp, "list counselors", &counselors); err != nil {
		return nil, err
	}
	return counselors, nil
}

func (c *Client) GetCounselor(ctx context.Context, id int64) (*model.Counselor, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, fmt.Sprintf("%s/counselors/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var counselor model.Counselor
	if err := decode(resp, "get counselor", &counselor); err != nil {
		return nil, err
	}
	return &counselor, nil
}

// LookupGroupLink returns the invite link of an already-provisioned session,
// or "" when no pairing exists yet. A 404 here is that valid "no link yet"
// answer, so the request opts out of the gateway's 404-triggered token
// refresh; any other non-2xx propagates.
func (c *Client) LookupGroupLink(ctx context.Context, hashedUserID string, counselorID int64) (string, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, c.baseURL+"/groups/link",
		groupLinkRequest{HashedUserID: hashedUserID, CounselorID: counselorID},
		gateway.WithoutNotFoundRefresh(),
	)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	var body groupLinkResponse
	if err := decode(resp, "lookup group link", &body); err != nil {
		return "", err
	}
	return body.GroupLink, nil
}

// RegisterChannelPair records the routing for a freshly provisioned session.
// Called exactly once per successful provisioning; a failure here strands
// the two already-created channels (see the orchestrator's orphan policy).
func (c *Client) RegisterChannelPair(ctx context.Context, params model.RegisterChannelPairParams) error {
	resp, err := c.gw.Do(ctx, http.MethodPost, c.baseURL+"/groups", params)
	if err != nil {
		return err
	}
	return decode(resp, "register channel pair", nil)
}

// ResolveRouting answers "where does a message arriving in this channel go".
// A channel with no routing record is an error, not an empty answer: nothing
// legitimately receives traffic without a prior registration.
func (c *Client) ResolveRouting(ctx context.Context, channelID int64) (*model.Routing, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, c.baseURL+"/groups/resolve", resolveRequest{GroupID: channelID})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.RoutingNotFound(channelID)
	}
	var routing model.Routing
	if err := decode(resp, "resolve routing", &routing); err != nil {
		return nil, err
	}
	return &routing, nil
}

func decode(resp *gateway.Response, operation string, out any) error {
	if !resp.OK() {
		return rejected(operation, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
