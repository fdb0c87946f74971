package auth

import (
	"encoding/json"
	"time"

	"github.com/queueless/queueless-go/internal/models"
)

// The backend has shipped two login/register response shapes: a nested
// {token, user} object and a flat object carrying the token plus
// individual user fields under varying names. decodeAuth tries them in
// that order and synthesizes a user from whichever fields are present.

// defaultUserName fills in when no name field survives the decode.
const defaultUserName = "User"

type flatAuthPayload struct {
	Token          string `json:"token"`
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Avatar         string `json:"avatar"`
	ProfilePicture string `json:"profile_picture"`
	CreatedAt      string `json:"created_at"`
	CreatedAtAlt   string `json:"createdAt"`
}

func decodeAuth(data json.RawMessage, fallbackEmail string) (*models.User, string, error) {
	var nested struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := json.Unmarshal(data, &nested); err == nil {
		if nested.Token != "" && nested.User.Valid() {
			return nested.User, nested.Token, nil
		}
	}

	var flat flatAuthPayload
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, "", ErrMalformedResponse
	}
	if flat.Token == "" {
		return nil, "", ErrMalformedResponse
	}

	user := &models.User{
		ID:        firstOf(flat.ID, flat.UserID),
		Email:     firstOf(flat.Email, fallbackEmail),
		Name:      firstOf(flat.Name, flat.Username, defaultUserName),
		Avatar:    firstOf(flat.Avatar, flat.ProfilePicture),
		CreatedAt: firstOf(flat.CreatedAt, flat.CreatedAtAlt, time.Now().UTC().Format(time.RFC3339)),
	}
	if !user.Valid() {
		return nil, "", ErrMalformedResponse
	}

	return user, flat.Token, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
