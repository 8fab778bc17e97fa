package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/linegate/internal/config"
	"github.com/mattjoyce/linegate/internal/dispatch"
	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/store"
)

const testSecret = "channel-secret"

// handlerFunc adapts a function to dispatch.RecordHandler.
type handlerFunc func(ctx context.Context, msg line.Message) line.HandleStatus

func (f handlerFunc) Handle(ctx context.Context, msg line.Message) line.HandleStatus {
	return f(ctx, msg)
}

// fetcherFunc adapts a function to dispatch.FetchHandler.
type fetcherFunc func(ctx context.Context, msg line.Message) line.HandleStatus

func (f fetcherFunc) Fetch(ctx context.Context, msg line.Message) line.HandleStatus {
	return f(ctx, msg)
}

// mockReplier records outbound reply calls.
type mockReplier struct {
	calls  int
	tokens []string
	texts  []string
}

func (m *mockReplier) Send(ctx context.Context, replyToken, text string) (map[string]any, error) {
	m.calls++
	m.tokens = append(m.tokens, replyToken)
	m.texts = append(m.texts, text)
	return map[string]any{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Listen: "127.0.0.1:0", AdminToken: "admin-token"},
		Line: config.LineConfig{
			ChannelSecret:      testSecret,
			ChannelAccessToken: "access-token",
			ReplyEndpoint:      "https://example.invalid/reply",
			ContentEndpoint:    "https://example.invalid/content",
		},
	}
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "linegate.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return store.New(db)
}

// newTestServer wires a server with a real store and dispatcher, the
// store as record handler and a recording reply sender.
func newTestServer(t *testing.T) (*Server, *store.Store, *mockReplier) {
	t.Helper()
	st := testStore(t)
	replier := &mockReplier{}
	fetcher := fetcherFunc(func(ctx context.Context, msg line.Message) line.HandleStatus {
		return line.OK()
	})
	d := dispatch.New(st, fetcher, replier, nil)
	return New(testConfig(), st, d, nil, nil), st, replier
}

func signedRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set(line.SignatureHeader, line.Sign(body, testSecret))
	return req
}

func textEventBody(eventID string) []byte {
	return []byte(`{
		"events": [
			{
				"replyToken": "reply-1",
				"webhookEventId": "` + eventID + `",
				"deliveryContext": {"isRedelivery": false},
				"source": {"userId": "u1"},
				"timestamp": 1700000000000,
				"message": {"type": "text", "id": "m1", "text": "hi"}
			}
		]
	}`)
}

func TestHandleWebhook_ValidTextEvent(t *testing.T) {
	srv, st, replier := newTestServer(t)
	router := srv.setupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, textEventBody("ev-1")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Exactly one reply with the event's token and the acknowledgment text.
	if replier.calls != 1 {
		t.Fatalf("reply calls = %d, want 1", replier.calls)
	}
	if replier.tokens[0] != "reply-1" {
		t.Errorf("reply token = %q", replier.tokens[0])
	}
	if want := "we have received and processed your text message."; replier.texts[0] != want {
		t.Errorf("reply text = %q, want %q", replier.texts[0], want)
	}

	// Message persisted for an auto-created user.
	recs, err := st.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(recs) != 1 || recs[0].Message != "hi" {
		t.Errorf("records = %+v", recs)
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	srv, st, replier := newTestServer(t)
	router := srv.setupRoutes()

	body := textEventBody("ev-1")
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set(line.SignatureHeader, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if replier.calls != 0 {
		t.Error("reply sent despite signature failure")
	}
	recs, _ := st.RecentMessages(context.Background(), 10)
	if len(recs) != 0 {
		t.Error("persistence occurred despite signature failure")
	}
}

func TestHandleWebhook_MissingSignatureHeader(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.setupRoutes()

	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(textEventBody("ev-1")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleWebhook_Redelivery(t *testing.T) {
	srv, st, replier := newTestServer(t)
	router := srv.setupRoutes()

	body := []byte(`{
		"events": [
			{
				"replyToken": "reply-1",
				"webhookEventId": "ev-1",
				"deliveryContext": {"isRedelivery": true},
				"source": {"userId": "u1"},
				"timestamp": 1700000000000,
				"message": {"type": "text", "id": "m1", "text": "hi"}
			}
		]
	}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for redelivery", rec.Code)
	}
	if replier.calls != 0 {
		t.Error("redelivery produced a reply")
	}
	recs, _ := st.RecentMessages(context.Background(), 10)
	if len(recs) != 0 {
		t.Error("redelivery produced a persistence call")
	}
}

func TestHandleWebhook_MissingUserID(t *testing.T) {
	srv, st, replier := newTestServer(t)
	router := srv.setupRoutes()

	body := []byte(`{
		"events": [
			{
				"replyToken": "reply-1",
				"webhookEventId": "ev-1",
				"deliveryContext": {"isRedelivery": false},
				"source": {},
				"timestamp": 1700000000000,
				"message": {"type": "text", "id": "m1", "text": "hi"}
			}
		]
	}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if replier.calls != 0 {
		t.Error("reply sent for event without user id")
	}
	recs, _ := st.RecentMessages(context.Background(), 10)
	if len(recs) != 0 {
		t.Error("persistence occurred for event without user id")
	}
}

func TestHandleWebhook_UnknownMessageType(t *testing.T) {
	srv, _, replier := newTestServer(t)
	router := srv.setupRoutes()

	body := []byte(`{
		"events": [
			{
				"replyToken": "reply-1",
				"webhookEventId": "ev-1",
				"deliveryContext": {"isRedelivery": false},
				"source": {"userId": "u1"},
				"timestamp": 1700000000000,
				"message": {"type": "sticker", "id": "m1"}
			}
		]
	}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	// The reply token survived the rejection, so a diagnostic goes out.
	if replier.calls != 1 {
		t.Fatalf("reply calls = %d, want 1", replier.calls)
	}
	if want := "we have a problem: no valid message type found"; replier.texts[0] != want {
		t.Errorf("reply text = %q, want %q", replier.texts[0], want)
	}
}

func TestHandleWebhook_ReplayedEventID(t *testing.T) {
	srv, st, replier := newTestServer(t)
	router := srv.setupRoutes()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, signedRequest(t, textEventBody("ev-1")))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, signedRequest(t, textEventBody("ev-1")))

	if second.Code != http.StatusOK {
		t.Errorf("status = %d", second.Code)
	}
	if replier.calls != 1 {
		t.Errorf("reply calls = %d, want 1 (replay must not reply again)", replier.calls)
	}
	recs, _ := st.RecentMessages(context.Background(), 10)
	if len(recs) != 1 {
		t.Errorf("records = %d, want 1 (replay must not write again)", len(recs))
	}
}

func TestHandleWebhook_MediaGoesFetching(t *testing.T) {
	st := testStore(t)
	replier := &mockReplier{}
	fetched := 0
	fetcher := fetcherFunc(func(ctx context.Context, msg line.Message) line.HandleStatus {
		fetched++
		if msg.Type != line.TypeImage {
			t.Errorf("fetch type = %v, want image", msg.Type)
		}
		return line.OK()
	})
	d := dispatch.New(st, fetcher, replier, nil)
	srv := New(testConfig(), st, d, nil, nil)
	router := srv.setupRoutes()

	body := []byte(`{
		"events": [
			{
				"replyToken": "reply-1",
				"webhookEventId": "ev-1",
				"deliveryContext": {"isRedelivery": false},
				"source": {"userId": "u1"},
				"timestamp": 1700000000000,
				"message": {"type": "image", "id": "m1"}
			}
		]
	}`)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	if fetched != 1 {
		t.Errorf("fetch calls = %d, want 1", fetched)
	}
	if replier.calls != 1 {
		t.Fatalf("reply calls = %d, want 1", replier.calls)
	}
	if want := "we have received and processed your image message."; replier.texts[0] != want {
		t.Errorf("reply text = %q", replier.texts[0])
	}
}

func TestHandleWebhook_BodyTooLarge(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.setupRoutes()

	body := bytes.Repeat([]byte("a"), int(MaxBodySize)+1)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.setupRoutes()

	req := httptest.NewRequest("GET", "/admin/messages/recent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAdminGetUser(t *testing.T) {
	srv, st, _ := newTestServer(t)
	router := srv.setupRoutes()

	if _, err := st.CreateUser(context.Background(), "u1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	req := httptest.NewRequest("GET", "/admin/users/u1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.LineUserID != "u1" || !resp.IsActive {
		t.Errorf("resp = %+v", resp)
	}

	// Unknown user is a 404.
	req = httptest.NewRequest("GET", "/admin/users/nobody", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.setupRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
