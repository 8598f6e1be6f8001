package models

import "time"

const RoleUser = "user"

// User is an admin-console account. Mailbox and SentMessages are legacy
// denormalised copies of Message documents; the messages collection is
// authoritative.
type User struct {
	ID           string           `bson:"-" json:"id"`
	Username     string           `bson:"username" json:"username"`
	Email        string           `bson:"email" json:"email"`
	PasswordHash string           `bson:"passwordHash" json:"-"`
	Role         string           `bson:"role,omitempty" json:"role"`
	Mailbox      []map[string]any `bson:"mailbox,omitempty" json:"mailbox,omitempty"`
	SentMessages []map[string]any `bson:"sentMessages,omitempty" json:"sentMessages,omitempty"`
	CreatedAt    time.Time        `bson:"createdAt,omitempty" json:"createdAt"`
}

// EffectiveRole returns the stored role, defaulting to RoleUser.
func (u User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// UserSummary is the projection returned by the user directory.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.EffectiveRole(),
	}
}

// Profile is the public shape of a user document. It never carries the
// password hash.
type Profile struct {
	ID           string           `json:"id"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	Role         string           `json:"role"`
	Mailbox      []map[string]any `json:"mailbox"`
	SentMessages []map[string]any `json:"sentMessages"`
	CreatedAt    *time.Time       `json:"createdAt,omitempty"`
}

func (u User) Profile() Profile {
	p := Profile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.EffectiveRole(),
		Mailbox:      u.Mailbox,
		SentMessages: u.SentMessages,
	}
	if p.Mailbox == nil {
		p.Mailbox = []map[string]any{}
	}
	if p.SentMessages == nil {
		p.SentMessages = []map[string]any{}
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		p.CreatedAt = &created
	}
	return p
}
