package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	minTimeoutMs           = 1000
	maxTimeoutMs           = 120000
	defaultTimeoutMs       = 10000
	defaultHealthTimeoutMs = 5000

	healthProbeMessage = "__health_check__"
	maxResponseBytes   = 1 << 20
)

// Defaults is the environment-level dispatch configuration. URL and Secret
// apply only when the request carries no target of its own.
type Defaults struct {
	URL            string
	Secret         string
	TimeoutMs      string
	AllowedDomains []string
	UserAgent      string
	// ProxyURL routes external targets through a same-origin endpoint
	// instead of calling them directly. Empty means direct calls.
	ProxyURL string
	// LocalHost is the host of this service's own public URL; targets on it
	// are treated as local.
	LocalHost               string
	SkipExternalHealthCheck bool
}

// Dispatcher relays payloads to a workflow webhook and maps every outcome,
// including transport failures, to a Result. It never returns an error and
// never mutates the payload it is given.
type Dispatcher struct {
	client    *http.Client
	defaults  Defaults
	userAgent string
	logger    *slog.Logger
}

func NewDispatcher(log *slog.Logger, client *http.Client, defaults Defaults) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	ua := strings.TrimSpace(defaults.UserAgent)
	if ua == "" {
		ua = "hookchat-relay"
	}
	return &Dispatcher{
		client:    client,
		defaults:  defaults,
		userAgent: ua,
		logger:    log.With(slog.String("service", "dispatcher")),
	}
}

// ResolveTimeout parses a configured timeout in milliseconds. Only integers
// in [1000,120000] are accepted; anything else falls back to the 10s send
// default.
func ResolveTimeout(raw string) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ms < minTimeoutMs || ms > maxTimeoutMs {
		ms = defaultTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// healthTimeout is half the configured send timeout, capped at 5s.
func healthTimeout(raw string) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ms < minTimeoutMs || ms > maxTimeoutMs {
		return defaultHealthTimeoutMs * time.Millisecond
	}
	half := ms / 2
	if half > defaultHealthTimeoutMs {
		half = defaultHealthTimeoutMs
	}
	return time.Duration(half) * time.Millisecond
}

type resolvedTarget struct {
	url    string
	secret string
	custom bool
}

// resolveTarget picks the destination and secret for one send. Explicit
// request overrides win over the stored target, which wins over the
// environment default. The default secret is only attached when the request
// supplied no URL of its own, so it never leaks to an arbitrary custom URL.
func (d *Dispatcher) resolveTarget(p Payload, target *Target) resolvedTarget {
	rt := resolvedTarget{}
	switch {
	case target != nil && strings.TrimSpace(target.URL) != "":
		rt.url = target.URL
		rt.custom = true
	case strings.TrimSpace(p.WebhookURL) != "":
		rt.url = p.WebhookURL
		rt.custom = true
	default:
		rt.url = d.defaults.URL
	}
	switch {
	case strings.TrimSpace(p.WebhookSecret) != "":
		rt.secret = p.WebhookSecret
	case target != nil && strings.TrimSpace(target.Secret) != "":
		rt.secret = target.Secret
	case !rt.custom:
		rt.secret = d.defaults.Secret
	}
	return rt
}

// Send relays the payload to the resolved target. All failures come back as
// Result{Success: false} with a human-readable Error; retries are the
// caller's concern.
func (d *Dispatcher) Send(ctx context.Context, p Payload, target *Target) Result {
	res := Result{MessageID: p.MessageID, Timestamp: time.Now().UTC()}

	rt := d.resolveTarget(p, target)
	canonical, err := Validate(rt.url, ValidateOptions{
		Custom:         rt.custom,
		AllowedDomains: d.defaults.AllowedDomains,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	body, err := json.Marshal(p)
	if err != nil {
		res.Error = fmt.Sprintf("encode payload: %v", err)
		return res
	}

	timeout := ResolveTimeout(d.defaults.TimeoutMs)
	status, respBody, err := d.post(ctx, canonical, rt.secret, body, timeout)
	if err != nil {
		res.Error = transportError(err, timeout)
		d.logger.Warn("webhook send failed",
			slog.String("messageId", p.MessageID),
			slog.String("error", res.Error))
		return res
	}
	if status < 200 || status >= 300 {
		res.Error = statusGuidance(status)
		d.logger.Warn("webhook rejected send",
			slog.String("messageId", p.MessageID),
			slog.Int("status", status))
		return res
	}

	res.Success = true
	if normalized := ExtractRaw(respBody); normalized.Content != "" {
		res.BotMessage = &BotMessage{
			Content: normalized.Content,
			Type:    MessageTypeText,
			Source:  normalized.Source,
		}
	}
	return res
}

// Health issues a minimal probe against the resolved target; any 2xx reply
// counts as healthy. External probes degrade to a URL format check when
// SkipExternalHealthCheck is set.
func (d *Dispatcher) Health(ctx context.Context, target *Target) bool {
	rt := d.resolveTarget(Payload{}, target)
	canonical, err := Validate(rt.url, ValidateOptions{
		Custom:         rt.custom,
		AllowedDomains: d.defaults.AllowedDomains,
	})
	if err != nil {
		return false
	}
	if d.defaults.SkipExternalHealthCheck && !d.isLocal(canonical) {
		return true
	}
	body, err := json.Marshal(map[string]string{"message": healthProbeMessage})
	if err != nil {
		return false
	}
	status, _, err := d.post(ctx, canonical, rt.secret, body, healthTimeout(d.defaults.TimeoutMs))
	return err == nil && status >= 200 && status < 300
}

func (d *Dispatcher) post(ctx context.Context, target, secret string, body []byte, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.requestURL(target), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The status already arrived; a truncated body only loses the reply.
		return resp.StatusCode, nil, nil
	}
	return resp.StatusCode, data, nil
}

// requestURL selects the transport path: local targets are called directly,
// external targets go through the configured proxy.
func (d *Dispatcher) requestURL(target string) string {
	if d.defaults.ProxyURL == "" || d.isLocal(target) {
		return target
	}
	return d.defaults.ProxyURL + "?url=" + url.QueryEscape(target)
}

func (d *Dispatcher) isLocal(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	return d.defaults.LocalHost != "" && host == strings.ToLower(d.defaults.LocalHost)
}

func transportError(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("webhook request timed out after %s", timeout)
	}
	return fmt.Sprintf("failed to connect to webhook: %v", err)
}

func statusGuidance(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("webhook rejected the request (HTTP %d): check the webhook secret and access permissions", status)
	case http.StatusNotFound:
		return "webhook not found (HTTP 404): verify the URL and that the workflow is active"
	default:
		return fmt.Sprintf("webhook returned HTTP %d", status)
	}
}
