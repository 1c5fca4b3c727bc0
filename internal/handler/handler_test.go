package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/execcoach/coach/internal/db/dbtest"
	"github.com/execcoach/coach/internal/middleware"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service"
	"github.com/execcoach/coach/internal/transport"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func newWebhook(t *testing.T) *standardwebhooks.Webhook {
	t.Helper()
	wh, err := transport.NewVerifier(testSecret)
	require.NoError(t, err)
	return wh
}

func signedRequest(t *testing.T, wh *standardwebhooks.Webhook, body []byte) *http.Request {
	t.Helper()

	now := time.Now()
	signature, err := wh.Sign("msg_test", now, body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	req.Header.Set("webhook-id", "msg_test")
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)
	return req
}

func echoDispatcher(t *testing.T) *transport.Dispatcher {
	t.Helper()
	d := transport.NewDispatcher(func(ctx context.Context, ev model.InboundEvent) model.OutboundReply {
		return model.OutboundReply{UserID: ev.UserID, Text: "echo: " + ev.Text + " " + ev.CommandToken}
	})
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

func TestEvents_SignedEventGetsReply(t *testing.T) {
	wh := newWebhook(t)
	h := NewEventsHandler(wh, echoDispatcher(t), nil, time.Second)

	body := []byte(`{"userId":"alice","text":"/win shipped","commandToken":"/win","timestamp":"2026-03-02T09:00:00Z"}`)
	rec := httptest.NewRecorder()
	h.Receive(rec, signedRequest(t, wh, body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply model.OutboundReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "webhook:alice", reply.UserID)
	assert.Equal(t, "echo: /win shipped /win", reply.Text)
}

func TestEvents_KeepsWebhookPrefix(t *testing.T) {
	wh := newWebhook(t)
	h := NewEventsHandler(wh, echoDispatcher(t), nil, time.Second)

	rec := httptest.NewRecorder()
	h.Receive(rec, signedRequest(t, wh, []byte(`{"userId":"webhook:bob","text":"hi"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"webhook:bob"`)
}

func TestEvents_Rejects(t *testing.T) {
	wh := newWebhook(t)
	h := NewEventsHandler(wh, echoDispatcher(t), nil, time.Second)

	t.Run("unsigned", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{"userId":"a","text":"hi"}`)))
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered", func(t *testing.T) {
		req := signedRequest(t, wh, []byte(`{"userId":"a","text":"hi"}`))
		req.Body = http.NoBody
		rec := httptest.NewRecorder()
		h.Receive(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing text", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Receive(rec, signedRequest(t, wh, []byte(`{"userId":"a"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Receive(rec, signedRequest(t, wh, []byte(`hello`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEvents_RateLimitedPerUser(t *testing.T) {
	wh := newWebhook(t)
	h := NewEventsHandler(wh, echoDispatcher(t), middleware.NewRateLimiter(2, time.Minute), time.Second)

	send := func(user string) int {
		rec := httptest.NewRecorder()
		req := signedRequest(t, wh, []byte(`{"userId":"`+user+`","text":"hi"}`))
		// Every event arrives from the same integrator host.
		req.RemoteAddr = "203.0.113.7:4000"
		h.Receive(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("webhook:alice"), "prefixed id is the same user")

	assert.Equal(t, http.StatusOK, send("bob"))
	assert.Equal(t, http.StatusOK, send("carol"))
}

func TestEvents_DispatcherClosed(t *testing.T) {
	wh := newWebhook(t)
	d := echoDispatcher(t)
	require.NoError(t, d.Close(context.Background()))

	h := NewEventsHandler(wh, d, nil, time.Second)
	rec := httptest.NewRecorder()
	h.Receive(rec, signedRequest(t, wh, []byte(`{"userId":"a","text":"hi"}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type adminEnv struct {
	handler *AdminHandler
	users   *service.UserService
	ledger  *service.LedgerService
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()

	database := dbtest.New(t)
	clock := service.SystemClock{}

	userRepo := repository.NewUserRepository(database)
	activityRepo := repository.NewActivityRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	conversationRepo := repository.NewConversationRepository(database)

	users := service.NewUserService(userRepo, clock)
	goals := service.NewGoalService(goalRepo, clock)
	metrics := service.NewMetricService(repository.NewMetricRepository(database), clock)

	return &adminEnv{
		handler: NewAdminHandler(
			users,
			service.NewProgressService(activityRepo, goals, metrics, clock),
			service.NewContextBuilder(activityRepo, goalRepo, conversationRepo, clock),
		),
		users:  users,
		ledger: service.NewLedgerService(userRepo, activityRepo, clock),
	}
}

func serveAdmin(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/users/{externalID}/progress", h)
	mux.HandleFunc("GET /admin/users/{externalID}/context", h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAdmin_Progress(t *testing.T) {
	env := newAdminEnv(t)

	user, err := env.users.GetOrCreate(model.InboundEvent{UserID: "telegram:42", FirstName: "Ana"})
	require.NoError(t, err)
	mood := model.MoodWin
	_, _, err = env.ledger.Append(user.ID, service.Entry{Description: "shipped", Category: model.CategoryWin, Mood: &mood})
	require.NoError(t, err)

	rec := serveAdmin(env.handler.Progress, "/admin/users/telegram:42/progress")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var progress service.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, "telegram:42", progress.ExternalID)
	assert.Equal(t, 1, progress.CurrentStreak)
	assert.Equal(t, 1, progress.TotalActivities)
	require.Len(t, progress.Recent, 1)
	assert.Equal(t, "shipped", progress.Recent[0].Description)
}

func TestAdmin_NotFound(t *testing.T) {
	env := newAdminEnv(t)

	rec := serveAdmin(env.handler.Progress, "/admin/users/telegram:404/progress")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Context(t *testing.T) {
	env := newAdminEnv(t)

	_, err := env.users.GetOrCreate(model.InboundEvent{UserID: "telegram:42"})
	require.NoError(t, err)

	rec := serveAdmin(env.handler.Context, "/admin/users/telegram:42/context?variant=business_ideas&request=fintech")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var bundle model.ContextBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, model.VariantBusinessIdeas, bundle.Variant)
	assert.Equal(t, "fintech", bundle.Theme)

	rec = serveAdmin(env.handler.Context, "/admin/users/telegram:42/context?variant=oracle")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	database := dbtest.New(t)
	h := NewHealthHandler(database)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.NoError(t, database.Close())

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
