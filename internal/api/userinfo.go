package api

import (
	"context"
	"errors"
)

// ErrNoSubject is returned when the account response carries no subject id.
var ErrNoSubject = errors.New("userinfo response has no subject")

// UserInfo is the OpenID Connect profile of the signed-in account.
type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// UserInfo fetches the profile of the account the token belongs to.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var info UserInfo
	if err := c.Get(ctx, "/userinfo", &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, ErrNoSubject
	}
	return &info, nil
}
