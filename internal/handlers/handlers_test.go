package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"lxrose/internal/auth"
	"lxrose/internal/forms"
	"lxrose/internal/models"
	"lxrose/internal/ratelimit"
)

type testServer struct {
	store  *fakeStore
	tokens *auth.Tokens
	router *gin.Engine
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	tokens := auth.NewTokens("test-secret", time.Hour)
	router := NewRouter(Deps{
		Store:         store,
		Tokens:        tokens,
		Verifier:      fakeVerifier{uid: "google-uid-1"},
		LoginLimiter:  ratelimit.NewMemory(loginLimit, time.Minute),
		IntakeLimiter: ratelimit.NewMemory(100, time.Minute),
		CORSOrigins:   []string{"*"},
		ServiceName:   "lxrose-test",
		Now:           func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return &testServer{store: store, tokens: tokens, router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// staff creates a console user directly in the store and returns its id
// and a bearer token.
func (s *testServer) staff(t *testing.T, username string) (string, string) {
	t.Helper()
	id, err := s.store.CreateUser(context.Background(), models.User{
		Username: username,
		Email:    username + "@lxrose.example",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return id, token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestContactIntakeThenList(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")

	w := s.do(t, http.MethodPost, "/api/forms/contact", map[string]string{
		"name":    "Jo",
		"email":   "jo@x.com",
		"message": "Need help finding a nurse",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[map[string]any](t, w)
	if created["id"] == "" || created["id"] == nil {
		t.Fatalf("expected an id, got %v", created)
	}

	w = s.do(t, http.MethodGet, "/api/forms/contact", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	records := decode[[]map[string]any](t, w)
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	r := records[0]
	if r["status"] != forms.StatusUnread || r["name"] != "Jo" || r["email"] != "jo@x.com" || r["message"] != "Need help finding a nurse" {
		t.Fatalf("unexpected record %v", r)
	}
	if r["id"] != created["id"] {
		t.Fatalf("expected listed id %v to match %v", r["id"], created["id"])
	}
}

func TestIntakeValidationWritesNothing(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodPost, "/api/forms/contact", map[string]string{
		"name":    "Jo",
		"message": "too short",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, w)
	if body.Error != "validation failed" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if _, ok := body.Fields["email"]; !ok {
		t.Fatalf("expected email to be reported, got %v", body.Fields)
	}
	if _, ok := body.Fields["message"]; !ok {
		t.Fatalf("expected message to be reported, got %v", body.Fields)
	}
	if n := len(s.store.records[forms.Contact.Collection]); n != 0 {
		t.Fatalf("expected no write, got %d records", n)
	}

	w = s.do(t, http.MethodPost, "/api/forms/contact", "{not json", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", w.Code)
	}
}

func TestIntakeAcceptsNumericFieldsAsNumbers(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodPost, "/api/forms/nursing-bookings", map[string]any{
		"serviceType":  "Home care",
		"patientAge":   82,
		"careDuration": "2 weeks",
		"startDate":    "2024-06-01",
		"contactInfo":  "555-0100",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	stored := s.store.records[forms.NursingBooking.Collection][0]
	if stored["patientAge"] != "82" || stored["status"] != forms.StatusNew {
		t.Fatalf("unexpected stored record %v", stored)
	}
}

func TestModerationRequiresToken(t *testing.T) {
	s := newTestServer(t, 100)

	for _, path := range []string{"/api/forms/contact", "/api/forms/join/export", "/api/users/all", "/api/analytics/dashboard"} {
		if w := s.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
	if w := s.do(t, http.MethodGet, "/api/forms/contact", nil, "forged"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", w.Code)
	}
}

func TestListFiltersAndLimits(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, _ := s.store.InsertForm(ctx, forms.Join, map[string]any{"name": "N", "email": "n@x.io"})
		ids = append(ids, id)
	}
	tr, _ := forms.Join.Transition("mark-welcomed")
	if _, err := s.store.TransitionForm(ctx, forms.Join, ids[0], tr, nil); err != nil {
		t.Fatalf("transition: %v", err)
	}

	records := decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/forms/join?status=welcomed", nil, token))
	if len(records) != 1 || records[0]["id"] != ids[0] {
		t.Fatalf("expected only the welcomed record, got %v", records)
	}

	records = decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/forms/join?limit=2", nil, token))
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["id"] != ids[2] {
		t.Fatalf("expected newest first, got %v", records[0]["id"])
	}

	for _, bad := range []string{"0", "-1", "abc", "1001"} {
		if w := s.do(t, http.MethodGet, "/api/forms/join?limit="+bad, nil, token); w.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestContactTransitions(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")

	id, _ := s.store.InsertForm(context.Background(), forms.Contact, map[string]any{"name": "Jo"})
	base := "/api/forms/contact/" + id

	w := s.do(t, http.MethodPost, base+"/mark-read", nil, token)
	if w.Code != http.StatusOK || !decode[map[string]any](t, w)["changed"].(bool) {
		t.Fatalf("expected first mark-read to change the record, got %d %s", w.Code, w.Body.String())
	}
	readAt := s.store.records[forms.Contact.Collection][0]["readAt"]

	w = s.do(t, http.MethodPost, base+"/mark-read", nil, token)
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["changed"].(bool) {
		t.Fatalf("expected repeated mark-read to be a no-op, got %d %s", w.Code, w.Body.String())
	}
	if s.store.records[forms.Contact.Collection][0]["readAt"] != readAt {
		t.Fatal("repeated mark-read must not move readAt")
	}

	if w := s.do(t, http.MethodPut, base+"/archive", nil, token); w.Code != http.StatusOK {
		t.Fatalf("expected archive from read to succeed, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, base+"/mark-read", nil, token); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for archived -> read, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, base+"/mark-welcomed", nil, token); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign action, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/forms/contact/ffffffffffffffffffffffff/mark-read", nil, token); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
}

func TestContactReply(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")

	id, _ := s.store.InsertForm(context.Background(), forms.Contact, map[string]any{"name": "Jo"})
	path := "/api/forms/contact/" + id + "/reply"

	if w := s.do(t, http.MethodPost, path, map[string]string{"repliedBy": "admin"}, token); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without replyMessage, got %d", w.Code)
	}

	w := s.do(t, http.MethodPost, path, map[string]string{"replyMessage": "We will call you", "repliedBy": "admin"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	r := s.store.records[forms.Contact.Collection][0]
	if r["status"] != forms.StatusReplied || r["replyMessage"] != "We will call you" || r["repliedBy"] != "admin" {
		t.Fatalf("unexpected record %v", r)
	}
	if _, ok := r.Time("repliedAt"); !ok {
		t.Fatal("expected repliedAt to be stamped")
	}
}

func TestJoinWelcomeAndExport(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")

	w := s.do(t, http.MethodPost, "/api/forms/join", map[string]string{"name": `Ann "Nan"`, "email": "ann@x.io"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := decode[map[string]any](t, w)["id"].(string)
	_ = s.do(t, http.MethodPost, "/api/forms/join", map[string]string{"name": "Bo", "email": "bo@x.io"}, "")

	if w := s.do(t, http.MethodPost, "/api/forms/join/"+id+"/mark-welcomed", nil, token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/forms/join/export", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="join-forms.csv"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Name,Email,Timestamp,Status,Welcome Email Sent" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "Bo" || rows[1][4] != "No" || rows[1][3] != forms.StatusNew {
		t.Fatalf("unexpected newest row %v", rows[1])
	}
	if rows[2][0] != `Ann "Nan"` || rows[2][4] != "Yes" || rows[2][3] != forms.StatusWelcomed {
		t.Fatalf("unexpected oldest row %v", rows[2])
	}
}

func TestExportEmptyCollection(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")

	w := s.do(t, http.MethodGet, "/api/forms/nutrition-bookings/export", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "Service ID,Service Title,Name,Email,Info,Timestamp,Status\n" {
		t.Fatalf("expected header only, got %q", got)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "alice@lxrose.example",
		"password": "s3cret-pass",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	userID := decode[map[string]any](t, w)["userId"].(string)

	w = s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "alice",
		"email":    "other@lxrose.example",
		"password": "s3cret-pass",
	}, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "wrong-pass"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if _, ok := decode[map[string]any](t, w)["token"]; ok {
		t.Fatal("no token may be issued on a failed login")
	}

	if w := s.do(t, http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "wrong-pass"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "s3cret-pass"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode[map[string]string](t, w)
	if body["userId"] != userID {
		t.Fatalf("expected userId %s, got %s", userID, body["userId"])
	}
	subject, err := s.tokens.Parse(body["token"])
	if err != nil || subject != userID {
		t.Fatalf("expected token subject %s, got %s (%v)", userID, subject, err)
	}

	if w := s.do(t, http.MethodGet, "/api/users/all", nil, body["token"]); w.Code != http.StatusOK {
		t.Fatalf("expected issued token to open the console, got %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, 100)
	w := s.do(t, http.MethodPost, "/register", map[string]string{"username": "al", "email": "bad", "password": "short"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(s.store.users) != 0 {
		t.Fatal("invalid registration must not create a user")
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	creds := map[string]string{"username": "nobody", "password": "whatever"}

	for i := 0; i < 2; i++ {
		if w := s.do(t, http.MethodPost, "/login", creds, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}
	if w := s.do(t, http.MethodPost, "/login", creds, ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestGetUserOmitsPasswordHash(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")
	id, err := s.store.CreateUser(context.Background(), models.User{
		Username:     "bob",
		Email:        "bob@lxrose.example",
		PasswordHash: "$2a$10$secret",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	w := s.do(t, http.MethodGet, "/getUser/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") || strings.Contains(w.Body.String(), "passwordHash") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}
	profile := decode[map[string]any](t, w)
	if profile["username"] != "bob" || profile["role"] != models.RoleUser {
		t.Fatalf("unexpected profile %v", profile)
	}

	if w := s.do(t, http.MethodGet, "/getUser/ffffffffffffffffffffffff", nil, token); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	users := decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/users/all", nil, token))
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if _, ok := u["passwordHash"]; ok {
			t.Fatalf("directory leaked a hash: %v", u)
		}
	}
}

func TestVerifyToken(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodPost, "/verifyToken", map[string]string{"idToken": "google-ok"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode[map[string]string](t, w); body["status"] != "success" || body["uid"] != "google-uid-1" {
		t.Fatalf("unexpected body %v", body)
	}

	w = s.do(t, http.MethodPost, "/verifyToken", map[string]string{"idToken": "forged"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body := decode[map[string]string](t, w); body["status"] != "error" || body["message"] != "Invalid token" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestMessagingRoundTrip(t *testing.T) {
	s := newTestServer(t, 100)
	alice, token := s.staff(t, "alice")
	bob, _ := s.staff(t, "bob")

	send := func(from, to, text string) string {
		t.Helper()
		w := s.do(t, http.MethodPost, "/api/messages/send", map[string]string{"fromUserId": from, "toUserId": to, "message": text}, token)
		if w.Code != http.StatusOK {
			t.Fatalf("send: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		return decode[map[string]any](t, w)["messageId"].(string)
	}
	send(alice, bob, "hi bob")
	send(bob, alice, "hi alice")
	send(bob, alice, "are you there?")

	w := s.do(t, http.MethodGet, "/api/messages/conversation/"+alice+"/"+bob, nil, token)
	history := decode[[]models.Message](t, w)
	if len(history) != 3 || history[0].Body != "hi bob" || history[2].Body != "are you there?" {
		t.Fatalf("unexpected history %+v", history)
	}
	if history[0].ConversationID != models.ConversationID(bob, alice) {
		t.Fatalf("unexpected conversation id %q", history[0].ConversationID)
	}

	convs := decode[[]models.ConversationSummary](t, s.do(t, http.MethodGet, "/api/messages/conversations/"+alice, nil, token))
	if len(convs) != 1 || convs[0].UserID != bob || convs[0].LastMessage != "are you there?" || !convs[0].Unread {
		t.Fatalf("unexpected conversations %+v", convs)
	}

	w = s.do(t, http.MethodPut, "/api/messages/conversation/"+alice+"/"+bob+"/mark-read", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if updated := decode[map[string]any](t, w)["updated"].(float64); updated != 2 {
		t.Fatalf("expected 2 updated, got %v", updated)
	}
	for _, m := range s.store.messages {
		if m.FromUserID == alice && m.Read {
			t.Fatal("marking alice's inbox read must not touch alice's sent messages")
		}
		if m.FromUserID == bob && !m.Read {
			t.Fatal("expected every bob -> alice message to be read")
		}
	}

	bobConvs := decode[[]models.ConversationSummary](t, s.do(t, http.MethodGet, "/api/messages/conversations/"+bob, nil, token))
	if len(bobConvs) != 1 || !bobConvs[0].Unread {
		t.Fatalf("expected bob to still have an unread message, got %+v", bobConvs)
	}

	sender, _ := s.store.FindUserByID(context.Background(), alice)
	if len(sender.SentMessages) != 1 || len(sender.Mailbox) != 2 {
		t.Fatalf("unexpected embedded copies: sent=%d mailbox=%d", len(sender.SentMessages), len(sender.Mailbox))
	}
}

func TestMarkMessageRead(t *testing.T) {
	s := newTestServer(t, 100)
	alice, token := s.staff(t, "alice")
	bob, _ := s.staff(t, "bob")

	msg, _ := s.store.InsertMessage(context.Background(), alice, bob, "hello")
	if w := s.do(t, http.MethodPut, "/api/messages/"+msg.ID+"/mark-read", nil, token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !s.store.messages[0].Read || s.store.messages[0].ReadAt == nil {
		t.Fatal("expected message to be read with readAt")
	}
	if w := s.do(t, http.MethodPut, "/api/messages/ffffffffffffffffffffffff/mark-read", nil, token); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSendMessageUnknownUser(t *testing.T) {
	s := newTestServer(t, 100)
	alice, token := s.staff(t, "alice")

	w := s.do(t, http.MethodPost, "/api/messages/send", map[string]string{"fromUserId": alice, "toUserId": "ffffffffffffffffffffffff", "message": "hi"}, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if len(s.store.messages) != 0 {
		t.Fatal("no message may be stored for an unknown recipient")
	}
}

func TestSendMessageSurvivesMailboxFailure(t *testing.T) {
	s := newTestServer(t, 100)
	alice, token := s.staff(t, "alice")
	bob, _ := s.staff(t, "bob")
	s.store.mailboxErr = errors.New("write conflict")

	w := s.do(t, http.MethodPost, "/api/messages/send", map[string]string{"toUserId": bob, "message": "hi"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(s.store.messages) != 1 || s.store.messages[0].FromUserID != alice {
		t.Fatalf("expected the message to be stored from the caller, got %+v", s.store.messages)
	}
}

func TestLegacySendMessage(t *testing.T) {
	s := newTestServer(t, 100)
	alice, token := s.staff(t, "alice")
	bob, _ := s.staff(t, "bob")

	payload := map[string]any{"fromId": alice, "toId": bob, "messageObj": map[string]any{"text": "hi", "ts": "2024-05-01"}}
	for i := 0; i < 2; i++ {
		if w := s.do(t, http.MethodPost, "/sendMessage", payload, token); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	}

	receiver, _ := s.store.FindUserByID(context.Background(), bob)
	if len(receiver.Mailbox) != 1 {
		t.Fatalf("expected identical payloads to be stored once, got %d", len(receiver.Mailbox))
	}
	if len(s.store.messages) != 0 {
		t.Fatal("legacy send must not write the messages collection")
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, 100)
	_, token := s.staff(t, "admin")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = s.store.InsertForm(ctx, forms.Contact, map[string]any{"name": "c"})
	}
	id, _ := s.store.InsertForm(ctx, forms.Contact, map[string]any{"name": "c"})
	tr, _ := forms.Contact.Transition("mark-read")
	_, _ = s.store.TransitionForm(ctx, forms.Contact, id, tr, nil)
	_, _ = s.store.InsertForm(ctx, forms.MentalBooking, map[string]any{"name": "m"})
	s.store.records[forms.MentalBooking.Collection][0]["createdAt"] = time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	w := s.do(t, http.MethodGet, "/api/analytics/dashboard", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[dashboardResponse](t, w)
	if body.ContactForms != (contactStats{Total: 3, Today: 3, ThisWeek: 3, Unread: 2}) {
		t.Fatalf("unexpected contact stats %+v", body.ContactForms)
	}
	mental := body.Bookings[forms.MentalBooking.Slug]
	if mental != (forms.Stats{Total: 1, Today: 0, ThisWeek: 0, Pending: 1}) {
		t.Fatalf("unexpected mental stats %+v", mental)
	}
	if len(body.Bookings) != len(forms.Bookings) {
		t.Fatalf("expected every booking kind, got %v", body.Bookings)
	}
}

func TestHomeAndHealth(t *testing.T) {
	s := newTestServer(t, 100)

	if w := s.do(t, http.MethodGet, "/", nil, ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "LXRose") {
		t.Fatalf("unexpected home response %d %q", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/healthz", nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	s.store.pingErr = errors.New("no primary")
	if w := s.do(t, http.MethodGet, "/healthz", nil, ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestUnknownFormKindIs404(t *testing.T) {
	s := newTestServer(t, 100)
	if w := s.do(t, http.MethodPost, "/api/forms/orders", map[string]string{}, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t, 100)

	w := s.do(t, http.MethodPost, "/register", map[string]string{
		"username": "renee",
		"email":    "renee@lxrose.example",
		"password": strings.Repeat("é", 40),
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	if _, ok := body.Fields["password"]; !ok {
		t.Fatalf("expected password to be reported, got %v", body.Fields)
	}
	if len(s.store.users) != 0 {
		t.Fatal("rejected registration must not create a user")
	}
}
