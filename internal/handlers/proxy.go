package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hookchatio/hookchat/internal/auth"
	"github.com/hookchatio/hookchat/internal/targets"
	"github.com/hookchatio/hookchat/internal/webhook"
)

const proxyMaxBodyBytes = 1 << 20

// ProxyHandler forwards webhook calls that browsers cannot make directly
// because of CORS. The destination must pass the same validation as any other
// custom URL, and stored secrets are attached server side so they never reach
// the client.
type ProxyHandler struct {
	client         *http.Client
	targetService  *targets.Service
	allowedDomains []string
	timeoutMs      string
	userAgent      string
	logger         *slog.Logger
}

func NewProxyHandler(log *slog.Logger, client *http.Client, targetService *targets.Service, allowedDomains []string, timeoutMs, userAgent string) *ProxyHandler {
	if client == nil {
		client = &http.Client{}
	}
	return &ProxyHandler{
		client:         client,
		targetService:  targetService,
		allowedDomains: allowedDomains,
		timeoutMs:      timeoutMs,
		userAgent:      userAgent,
		logger:         log.With(slog.String("handler", "proxy")),
	}
}

func (h *ProxyHandler) Register(e *echo.Echo) {
	e.POST("/proxy", h.Forward)
}

// Forward godoc
// @Summary Forward a webhook call
// @Description Relay the request body to the URL in the query string
// @Tags proxy
// @Param url query string true "Destination URL"
// @Success 200 {string} string "Upstream response body"
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /proxy [post]
func (h *ProxyHandler) Forward(c echo.Context) error {
	// The dispatcher calls this endpoint server side without a token; only
	// browser callers carry one, and only they get stored-secret lookup.
	userID, _ := auth.UserIDFromContext(c)

	canonical, err := webhook.Validate(c.QueryParam("url"), webhook.ValidateOptions{
		Custom:         true,
		AllowedDomains: h.allowedDomains,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, proxyMaxBodyBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodPost, canonical, bytes.NewReader(body))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if secret := h.resolveSecret(c, userID, canonical); secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}

	client := &http.Client{
		Transport: h.client.Transport,
		Timeout:   webhook.ResolveTimeout(h.timeoutMs),
	}
	resp, err := client.Do(req)
	if err != nil {
		h.logger.Warn("proxy forward failed",
			slog.String("url", canonical),
			slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to reach the destination webhook")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, proxyMaxBodyBytes))
	if err != nil {
		respBody = nil
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.StatusCode, contentType, respBody)
}

// resolveSecret prefers the caller's explicit header, then the secret of a
// stored target matching the destination URL.
func (h *ProxyHandler) resolveSecret(c echo.Context, userID, canonical string) string {
	if secret := strings.TrimSpace(c.Request().Header.Get("X-Webhook-Secret")); secret != "" {
		return secret
	}
	if userID == "" {
		return ""
	}
	items, err := h.targetService.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Warn("target lookup failed", slog.Any("error", err))
		return ""
	}
	for _, item := range items {
		if item.URL == canonical && item.APISecret != "" {
			return item.APISecret
		}
	}
	return ""
}
