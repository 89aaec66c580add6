// Package profile reads and updates the calling user's profile.
package profile

import (
	"context"
	"fmt"

	"github.com/mektebapp/go-mekteb-client/client"
)

// Profile is the account detail record. Unlike most endpoints it is
// returned bare, without the response envelope, and with snake_case
// name fields.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// UpdateInput carries the editable profile fields.
type UpdateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UpdateResult is the response to a profile update.
type UpdateResult struct {
	Message string   `json:"message"`
	User    *Profile `json:"user"`
}

// Service exposes the /users profile endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// Current returns the calling user's profile.
func (s *Service) Current(ctx context.Context) (*Profile, error) {
	p := &Profile{}
	if err := s.api.Get(ctx, "/users/profile", nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes the calling user's name.
func (s *Service) Update(ctx context.Context, userID int64, input UpdateInput) (*UpdateResult, error) {
	result := &UpdateResult{}
	if err := s.api.Put(ctx, fmt.Sprintf("/users/%d", userID), input, result); err != nil {
		return nil, err
	}
	return result, nil
}
