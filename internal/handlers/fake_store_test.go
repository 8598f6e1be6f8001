package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lxrose/internal/forms"
	"lxrose/internal/models"
)

// fakeStore keeps every collection in memory and mirrors the transition and
// timestamp rules of the Mongo store.
type fakeStore struct {
	mu sync.Mutex

	now    func() time.Time
	nextID int

	records  map[string][]forms.Record
	users    []models.User
	messages []models.Message

	pingErr    error
	mailboxErr error
}

func newFakeStore() *fakeStore {
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		records: make(map[string][]forms.Record),
	}
}

func (s *fakeStore) newID() string {
	s.nextID++
	return fmt.Sprintf("%024x", s.nextID)
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) InsertForm(_ context.Context, kind *forms.Kind, doc map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := forms.Record{}
	for k, v := range doc {
		r[k] = v
	}
	id := s.newID()
	r["id"] = id
	r["status"] = kind.DefaultStatus
	r["createdAt"] = s.now()
	s.records[kind.Collection] = append(s.records[kind.Collection], r)
	return id, nil
}

func (s *fakeStore) ListForms(_ context.Context, kind *forms.Kind, q forms.Query) ([]forms.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]forms.Record, 0)
	for _, r := range s.records[kind.Collection] {
		if q.Status != "" && kind.StatusOf(r) != q.Status {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Time("createdAt")
		b, _ := out[j].Time("createdAt")
		return a.After(b)
	})
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeStore) TransitionForm(_ context.Context, kind *forms.Kind, id string, tr forms.Transition, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records[kind.Collection] {
		if r.String("id") != id {
			continue
		}
		status := kind.StatusOf(r)
		if !tr.Permits(status) {
			if status == tr.Target {
				return false, nil
			}
			return false, models.ErrInvalidTransition
		}
		r["status"] = tr.Target
		for k, v := range tr.Set {
			r[k] = v
		}
		for k, v := range fields {
			r[k] = v
		}
		r[tr.StampField] = s.now()
		return true, nil
	}
	return false, models.ErrNotFound
}

func (s *fakeStore) FormStats(_ context.Context, kind *forms.Kind, now time.Time) (forms.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)

	var st forms.Stats
	for _, r := range s.records[kind.Collection] {
		st.Total++
		if created, ok := r.Time("createdAt"); ok {
			if !created.Before(today) {
				st.Today++
			}
			if !created.Before(weekAgo) {
				st.ThisWeek++
			}
		}
		if kind.StatusOf(r) == kind.DefaultStatus {
			st.Pending++
		}
	}
	return st, nil
}

func (s *fakeStore) CreateUser(_ context.Context, u models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return "", models.ErrDuplicate
		}
	}
	u.ID = s.newID()
	u.CreatedAt = s.now()
	s.users = append(s.users, u)
	return u.ID, nil
}

func (s *fakeStore) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

func (s *fakeStore) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *fakeStore) FindUserByID(_ context.Context, id string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *fakeStore) ListUsers(context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...), nil
}

func (s *fakeStore) pushToUsers(fromID, toID string, entry map[string]any, dedupe bool) error {
	var from, to *models.User
	for i := range s.users {
		if s.users[i].ID == fromID {
			from = &s.users[i]
		}
		if s.users[i].ID == toID {
			to = &s.users[i]
		}
	}
	if from == nil || to == nil {
		return models.ErrNotFound
	}
	if dedupe {
		for _, existing := range from.SentMessages {
			if fmt.Sprint(existing) == fmt.Sprint(entry) {
				return nil
			}
		}
	}
	from.SentMessages = append(from.SentMessages, entry)
	to.Mailbox = append(to.Mailbox, entry)
	return nil
}

func (s *fakeStore) AppendLegacyMessage(_ context.Context, fromID, toID string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushToUsers(fromID, toID, payload, true)
}

func (s *fakeStore) PushMailboxCopies(_ context.Context, m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mailboxErr != nil {
		return s.mailboxErr
	}
	return s.pushToUsers(m.FromUserID, m.ToUserID, m.MailboxCopy(), false)
}

func (s *fakeStore) InsertMessage(_ context.Context, fromID, toID, body string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Message{
		ID:             s.newID(),
		FromUserID:     fromID,
		ToUserID:       toID,
		Body:           body,
		CreatedAt:      s.now(),
		ConversationID: models.ConversationID(fromID, toID),
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *fakeStore) filterMessages(match func(models.Message) bool) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) MessagesInvolving(_ context.Context, userID string) ([]models.Message, error) {
	return s.filterMessages(func(m models.Message) bool {
		return m.FromUserID == userID || m.ToUserID == userID
	}), nil
}

func (s *fakeStore) MessagesBetween(_ context.Context, a, b string) ([]models.Message, error) {
	return s.filterMessages(func(m models.Message) bool {
		return (m.FromUserID == a && m.ToUserID == b) || (m.FromUserID == b && m.ToUserID == a)
	}), nil
}

func (s *fakeStore) MarkMessageRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			if !s.messages[i].Read {
				at := s.now()
				s.messages[i].Read = true
				s.messages[i].ReadAt = &at
			}
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *fakeStore) MarkConversationRead(_ context.Context, readerID, partnerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.FromUserID == partnerID && m.ToUserID == readerID && !m.Read {
			at := s.now()
			m.Read = true
			m.ReadAt = &at
			n++
		}
	}
	return n, nil
}

type fakeVerifier struct {
	uid string
}

func (v fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	if token != "google-ok" {
		return "", fmt.Errorf("invalid token")
	}
	return v.uid, nil
}
