package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testPayload(content string) Payload {
	return Payload{
		SessionID: "session-1",
		MessageID: "message-1",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		User:      User{ID: "user-1", Name: "Tester"},
		Message:   MessagePayload{Type: MessageTypeText, Content: content},
	}
}

func TestResolveTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "5000", want: 5 * time.Second},
		{raw: "500", want: 10 * time.Second},      // below floor
		{raw: "500000", want: 10 * time.Second},   // above ceiling
		{raw: "banana", want: 10 * time.Second},
		{raw: "", want: 10 * time.Second},
		{raw: " 120000 ", want: 120 * time.Second},
		{raw: "1000", want: time.Second},
	}

	for _, tt := range tests {
		if got := ResolveTimeout(tt.raw); got != tt.want {
			t.Fatalf("ResolveTimeout(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestHealthTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "", want: 5 * time.Second},
		{raw: "4000", want: 2 * time.Second},
		{raw: "60000", want: 5 * time.Second}, // half exceeds the cap
	}

	for _, tt := range tests {
		if got := healthTimeout(tt.raw); got != tt.want {
			t.Fatalf("healthTimeout(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestSendSuccessWithReply(t *testing.T) {
	t.Parallel()

	var gotSecret, gotContentType, gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Webhook-Secret")
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"hello back","source":"workflow"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, srv.Client(), Defaults{URL: srv.URL, Secret: "top-secret"})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.BotMessage == nil {
		t.Fatal("expected bot message")
	}
	if res.BotMessage.Content != "hello back" {
		t.Fatalf("content = %q", res.BotMessage.Content)
	}
	if res.BotMessage.Source != "workflow" {
		t.Fatalf("source = %q", res.BotMessage.Source)
	}
	if res.MessageID != "message-1" {
		t.Fatalf("messageId = %q", res.MessageID)
	}
	if gotSecret != "top-secret" {
		t.Fatalf("secret header = %q", gotSecret)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if !strings.Contains(gotUserAgent, "hookchat") {
		t.Fatalf("user agent = %q", gotUserAgent)
	}
}

func TestSendSuccessWithoutDisplayableReply(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, srv.Client(), Defaults{URL: srv.URL})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if res.BotMessage != nil {
		t.Fatalf("expected no bot message, got %+v", res.BotMessage)
	}
}

func TestSendStatusGuidance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   []string
	}{
		{status: http.StatusNotFound, want: []string{"not found", "verify"}},
		{status: http.StatusUnauthorized, want: []string{"secret", "permissions"}},
		{status: http.StatusForbidden, want: []string{"secret", "permissions"}},
		{status: http.StatusInternalServerError, want: []string{"HTTP 500"}},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		d := NewDispatcher(nil, srv.Client(), Defaults{URL: srv.URL})
		res := d.Send(context.Background(), testPayload("hi"), nil)
		srv.Close()

		if res.Success {
			t.Fatalf("status %d: expected failure", tt.status)
		}
		for _, fragment := range tt.want {
			if !strings.Contains(res.Error, fragment) {
				t.Fatalf("status %d: error %q missing %q", tt.status, res.Error, fragment)
			}
		}
	}
}

func TestSendConnectionFailure(t *testing.T) {
	t.Parallel()

	// Reserve a port and close it so the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	d := NewDispatcher(nil, nil, Defaults{URL: target})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "failed to connect") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestSendValidationFailure(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, nil, Defaults{URL: "ftp://x.com"})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "http") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestDefaultSecretNeverSentToCustomURL(t *testing.T) {
	t.Parallel()

	var gotSecret string
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotSecret = r.Header.Get("X-Webhook-Secret")
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, srv.Client(), Defaults{URL: "https://default.example/hook", Secret: "default-secret"})

	// Custom URL via payload override: the environment default must not leak.
	p := testPayload("hi")
	p.WebhookURL = srv.URL
	res := d.Send(context.Background(), p, nil)
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if gotSecret != "" {
		t.Fatalf("default secret leaked to custom URL: %q", gotSecret)
	}

	// A stored target's own secret still applies.
	res = d.Send(context.Background(), testPayload("hi"), &Target{URL: srv.URL, Secret: "target-secret"})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if gotSecret != "target-secret" {
		t.Fatalf("secret = %q, want target-secret", gotSecret)
	}

	// An explicit request secret wins over everything.
	p = testPayload("hi")
	p.WebhookURL = srv.URL
	p.WebhookSecret = "request-secret"
	d.Send(context.Background(), p, nil)
	if gotSecret != "request-secret" {
		t.Fatalf("secret = %q, want request-secret", gotSecret)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestSendDoesNotMutatePayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	p := testPayload("hi")
	before, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	d := NewDispatcher(nil, srv.Client(), Defaults{URL: srv.URL})
	d.Send(context.Background(), p, nil)

	after, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatalf("payload mutated: %s vs %s", before, after)
	}
}

func TestExternalTargetRoutedThroughProxy(t *testing.T) {
	t.Parallel()

	var gotPath, gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTarget = r.URL.Query().Get("url")
		w.Write([]byte(`{"message":"relayed"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, srv.Client(), Defaults{
		URL:      "https://flows.example.com/webhook/abc",
		ProxyURL: srv.URL + "/api/proxy",
	})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if gotPath != "/api/proxy" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotTarget != "https://flows.example.com/webhook/abc" {
		t.Fatalf("proxied target = %q", gotTarget)
	}
}

func TestLocalTargetBypassesProxy(t *testing.T) {
	t.Parallel()

	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"message":"direct"}`))
	}))
	defer srv.Close()

	// httptest binds to 127.0.0.1, which classifies as local.
	d := NewDispatcher(nil, srv.Client(), Defaults{
		URL:      srv.URL,
		ProxyURL: "https://unreachable.example/api/proxy",
	})
	res := d.Send(context.Background(), testPayload("hi"), nil)

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if !called {
		t.Fatal("local target was not called directly")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(nil, srv.Client(), Defaults{URL: srv.URL})
	if !d.Health(context.Background(), nil) {
		t.Fatal("expected healthy")
	}
	if gotBody["message"] != "__health_check__" {
		t.Fatalf("probe body = %+v", gotBody)
	}

	bad := NewDispatcher(nil, nil, Defaults{URL: "not a url"})
	if bad.Health(context.Background(), nil) {
		t.Fatal("expected unhealthy for invalid URL")
	}
}

func TestHealthSkipsExternalProbe(t *testing.T) {
	t.Parallel()

	// No server listens at the target: the degraded check passes on URL
	// format alone.
	d := NewDispatcher(nil, nil, Defaults{
		URL:                     "https://flows.example.com/webhook/abc",
		SkipExternalHealthCheck: true,
	})
	if !d.Health(context.Background(), nil) {
		t.Fatal("expected degraded health check to pass")
	}

	bad := NewDispatcher(nil, nil, Defaults{
		URL:                     "ftp://flows.example.com",
		SkipExternalHealthCheck: true,
	})
	if bad.Health(context.Background(), nil) {
		t.Fatal("expected degraded health check to fail on bad URL")
	}
}
