package api

import "time"

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type GetSaltRequest struct {
	Email string `json:"email"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Verifier []byte `json:"verifier"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status     string    `json:"status"`
	ServerTime time.Time `json:"server_time"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type Recipient struct {
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name,omitempty"`
	NotifyOnCreate bool       `json:"notify_on_create"`
	NotifyOnUnlock bool       `json:"notify_on_unlock"`
	Delivery       string     `json:"delivery"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
}

// Capsule is a capsule without its payload.
type Capsule struct {
	ID         string      `json:"id"`
	OwnerEmail string      `json:"owner_email"`
	OwnerName  string      `json:"owner_name,omitempty"`
	Headline   string      `json:"headline"`
	UnlockAt   time.Time   `json:"unlock_at"`
	CreatedAt  time.Time   `json:"created_at"`
	State      string      `json:"state"`
	Recipients []Recipient `json:"recipients"`
}

type CreateCapsuleRequest struct {
	Headline   string    `json:"headline"`
	UnlockAt   time.Time `json:"unlock_at"`
	Recipients []string  `json:"recipients"`
	Surprise   bool      `json:"surprise"`
	Ciphertext []byte    `json:"ciphertext"`
	IV         []byte    `json:"iv"`
	Salt       []byte    `json:"salt"`
}

type CreateCapsuleResponse struct {
	Capsule Capsule `json:"capsule"`
}

type ListCapsulesRequest struct{}

type ListCapsulesResponse struct {
	Capsules   []Capsule `json:"capsules"`
	ServerTime time.Time `json:"server_time"`
}

type CapsuleRequest struct {
	CapsuleID string `json:"capsule_id"`
}

// OpenCapsuleResponse carries the sealed bundle. Context is the associated
// data the payload was sealed with.
type OpenCapsuleResponse struct {
	Capsule    Capsule `json:"capsule"`
	Ciphertext []byte  `json:"ciphertext"`
	IV         []byte  `json:"iv"`
	Salt       []byte  `json:"salt"`
	Context    string  `json:"context"`
}

type MarkOpenedResponse struct{}

type Friend struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Status      string    `json:"status"`
	Since       time.Time `json:"since"`
}

type FriendRequest struct {
	Email string `json:"email"`
}

type FriendResponse struct {
	Status string `json:"status"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends  []Friend `json:"friends"`
	Incoming []Friend `json:"incoming"`
	Outgoing []Friend `json:"outgoing"`
	Blocked  []Friend `json:"blocked"`
}

type EligibleRecipientsResponse struct {
	Recipients []Friend `json:"recipients"`
}

type Invite struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	Token      string     `json:"token,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

type SendInviteRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type SendInviteResponse struct {
	Invite Invite `json:"invite"`
	Resent bool   `json:"resent"`
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

type AcceptInviteResponse struct {
	Invite Invite `json:"invite"`
}

type ListInvitesRequest struct{}

type ListInvitesResponse struct {
	Invites []Invite `json:"invites"`
}
