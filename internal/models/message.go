package models

import (
	"sort"
	"strings"
	"time"
)

// conversationSeparator joins the sorted participant ids.
const conversationSeparator = "_"

// Message is one internal mail between two console users.
type Message struct {
	ID             string     `bson:"-" json:"id"`
	FromUserID     string     `bson:"fromUserId" json:"fromUserId"`
	ToUserID       string     `bson:"toUserId" json:"toUserId"`
	Body           string     `bson:"message" json:"message"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	Read           bool       `bson:"read" json:"read"`
	ReadAt         *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	ConversationID string     `bson:"conversationId" json:"conversationId"`
}

// ConversationID is direction independent: (a, b) and (b, a) map to the
// same id.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, conversationSeparator)
}

// Partner returns the other participant from userID's point of view.
func (m Message) Partner(userID string) string {
	if m.FromUserID == userID {
		return m.ToUserID
	}
	return m.FromUserID
}

// MailboxCopy is the denormalised shape pushed into users' mailbox and
// sentMessages arrays.
func (m Message) MailboxCopy() map[string]any {
	return map[string]any{
		"id":             m.ID,
		"fromUserId":     m.FromUserID,
		"toUserId":       m.ToUserID,
		"message":        m.Body,
		"createdAt":      m.CreatedAt,
		"read":           m.Read,
		"conversationId": m.ConversationID,
	}
}

// ConversationSummary describes one partner in a user's inbox.
type ConversationSummary struct {
	UserID        string    `json:"userId"`
	LastMessage   string    `json:"lastMessage"`
	LastTimestamp time.Time `json:"lastTimestamp"`
	Unread        bool      `json:"unread"`
}

// SummarizeConversations groups msgs by the partner of userID. A message
// replaces a partner's last message only when strictly newer. Unread is
// set once any message addressed to userID from that partner is unread and
// never cleared during the pass. Results are ordered newest first.
func SummarizeConversations(userID string, msgs []Message) []ConversationSummary {
	byPartner := make(map[string]*ConversationSummary)
	order := make([]string, 0)

	for _, m := range msgs {
		if m.FromUserID != userID && m.ToUserID != userID {
			continue
		}
		partner := m.Partner(userID)
		unread := m.ToUserID == userID && !m.Read

		existing, ok := byPartner[partner]
		if !ok {
			byPartner[partner] = &ConversationSummary{
				UserID:        partner,
				LastMessage:   m.Body,
				LastTimestamp: m.CreatedAt,
				Unread:        unread,
			}
			order = append(order, partner)
			continue
		}
		if m.CreatedAt.After(existing.LastTimestamp) {
			existing.LastMessage = m.Body
			existing.LastTimestamp = m.CreatedAt
		}
		if unread {
			existing.Unread = true
		}
	}

	out := make([]ConversationSummary, 0, len(order))
	for _, partner := range order {
		out = append(out, *byPartner[partner])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastTimestamp.Equal(out[j].LastTimestamp) {
			return out[i].LastTimestamp.After(out[j].LastTimestamp)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// SortChronologically orders msgs oldest first.
func SortChronologically(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
