package client

import "time"

// Client is a registered websocket user. Registration lives in the client store with a TTL;
// the profile part (name and avatar) is also kept in the profile store.
type Client struct {
	UUID      string    `json:"user_uuid" bson:"_id"`
	Name      string    `json:"user_name" bson:"user_name"`
	Avatar    string    `json:"user_avatar,omitempty" bson:"user_avatar,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type RegisterRequest struct {
	UserName   string `json:"user_name"`
	UserUUID   string `json:"user_uuid"`
	UserAvatar string `json:"user_avatar"`
}

type RegisterResponse struct {
	URL string `json:"url"`
}
