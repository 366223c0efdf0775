package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatdomain "github.com/havensuites/concierge/internal/chat/domain"
	chatinfra "github.com/havensuites/concierge/internal/chat/infra"
	chatservice "github.com/havensuites/concierge/internal/chat/service"
	"github.com/havensuites/concierge/internal/handler"
	"github.com/havensuites/concierge/internal/infra/client"
	"github.com/havensuites/concierge/internal/infra/observability"
	"github.com/havensuites/concierge/internal/infra/resilience"
	"github.com/havensuites/concierge/internal/port"
	"github.com/havensuites/concierge/internal/rating"
	"github.com/havensuites/concierge/internal/room"
	"github.com/havensuites/concierge/internal/service"
	"github.com/havensuites/concierge/internal/session"

	"go.uber.org/zap"
)

// newConcierge wires a full router the way cmd/concierge does, with the
// given predictor and an optional local model served on /v1/rating.
func newConcierge(t *testing.T, predictor port.RatingPredictor, model *rating.Model) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	corpus, err := chatinfra.LoadCorpus("../../assets/intents.json")
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	catalog := room.DefaultCatalog()

	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })

	recs := service.NewRecommendationService(catalog, predictor, nil, 2*time.Second, metrics, logger)

	return handler.NewRouter(handler.Deps{
		Chat:            chatservice.NewChatService(store, recs, chatservice.NewIntentMatcher(corpus, 7), metrics, logger),
		Recommendations: recs,
		Catalog:         catalog,
		Model:           model,
		Tokens:          session.NewTokenIssuer("integration-secret", time.Hour),
		Metrics:         metrics,
		Logger:          logger,
	})
}

type chatClient struct {
	t      *testing.T
	url    string
	token  string
	client *http.Client
}

func (c *chatClient) say(msg string) string {
	c.t.Helper()
	body, _ := json.Marshal(map[string]string{"message": msg})
	req, _ := http.NewRequest(http.MethodPost, c.url+"/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("chat request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out chatdomain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.t.Fatalf("decode: %v", err)
	}
	if c.token == "" {
		c.token = out.SessionToken
		if c.token == "" {
			c.t.Fatal("expected a session token on the first turn")
		}
	}
	return out.Reply
}

// TestIntegration_FullFlow runs a rating replica serving its local model and
// a concierge that calls it over HTTP, then books a room through chat.
func TestIntegration_FullFlow(t *testing.T) {
	model, err := rating.LoadModel("../../assets/rating_model.yaml")
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	ratingServer := httptest.NewServer(newConcierge(t, rating.NewLocalPredictor(model), model))
	defer ratingServer.Close()

	httpClient := &http.Client{Timeout: 5 * time.Second}
	remote := client.NewRatingClient(
		httpClient,
		ratingServer.URL,
		resilience.NewCircuitBreaker("integration", zap.NewNop()),
		resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10},
	)
	front := httptest.NewServer(newConcierge(t, remote, nil))
	defer front.Close()

	c := &chatClient{t: t, url: front.URL, client: httpClient}

	if reply := c.say("3 guests"); reply != "Got it, 3 guest(s)." {
		t.Errorf("unexpected ack %q", reply)
	}
	if reply := c.say("my budget is 3000"); reply != "Thanks! Budget noted: ₱3000." {
		t.Errorf("unexpected ack %q", reply)
	}

	reply := c.say("what do you recommend?")
	if !strings.HasPrefix(reply, "I recommend the Deluxe Room.") {
		t.Fatalf("expected Deluxe Room, got %q", reply)
	}
	for _, want := range []string{
		"• Good for 3 guest(s)",
		"• Fits your budget of ₱3000",
		"• Estimated nightly price: ₱2800",
		"Predicted guest satisfaction: ",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("expected %q in %q", want, reply)
		}
	}

	// Slots were cleared: the next idle turn falls back.
	if reply := c.say("ok"); reply != chatservice.FallbackReply {
		t.Errorf("expected fallback after recommendation, got %q", reply)
	}
}

func TestIntegration_PredictorDown(t *testing.T) {
	ratingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ratingServer.Close()

	httpClient := &http.Client{Timeout: 5 * time.Second}
	remote := client.NewRatingClient(
		httpClient,
		ratingServer.URL,
		resilience.NewCircuitBreaker("integration-down", zap.NewNop()),
		resilience.Config{MaxConcurrency: 1},
	)
	front := httptest.NewServer(newConcierge(t, remote, nil))
	defer front.Close()

	c := &chatClient{t: t, url: front.URL, client: httpClient}
	c.say("2 people")
	c.say("1500 pesos")

	if reply := c.say("so?"); reply != chatservice.UnavailableReply {
		t.Errorf("expected apology, got %q", reply)
	}
	if reply := c.say("so?"); reply != chatservice.FallbackReply {
		t.Errorf("expected slots reset after the failure, got %q", reply)
	}

	// The stateless API reports the same failure as a gateway error.
	resp, err := httpClient.Post(front.URL+"/v1/recommendations", "application/json",
		strings.NewReader(`{"guests": 2, "price": 1500}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestIntegration_CannedRepliesDoNotRepeat(t *testing.T) {
	model := &rating.Model{Intercept: 4, Min: 1, Max: 5}
	front := httptest.NewServer(newConcierge(t, rating.NewLocalPredictor(model), model))
	defer front.Close()

	c := &chatClient{t: t, url: front.URL, client: &http.Client{Timeout: 5 * time.Second}}

	prev := c.say("hello")
	for i := 0; i < 10; i++ {
		next := c.say("hello")
		if next == prev {
			t.Fatalf("turn %d repeated %q", i, next)
		}
		prev = next
	}
}
