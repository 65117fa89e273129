package backend

import (
	"context"
	"fmt"
)

const tableProfiles = "profiles"

type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UpsertProfile creates or renames the profile row of the signed in user.
func (c *Client) UpsertProfile(ctx context.Context, accessToken string, profile Profile) error {
	var rows []Profile
	if err := c.WithAccessToken(accessToken).
		From(tableProfiles).
		Upsert(ctx, profile, "id", &rows); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
