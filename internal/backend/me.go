package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Me is the profile the backend keeps for the signed-in user.
type Me struct {
	ID            string `json:"id"`
	CognitoSub    string `json:"cognitoSub"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	ProfileSource string `json:"profileSource,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

func (c *Client) Me(ctx context.Context, token string) (*Me, error) {
	payload, err := c.Do(ctx, http.MethodGet, "/v1/me", token, nil)
	if err != nil {
		return nil, err
	}

	var me Me
	if err := json.Unmarshal(payload, &me); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &me, nil
}
