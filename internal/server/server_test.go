package server

import (
	"net/http/httptest"
	"testing"
)

func TestShouldSkipJWT(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want bool
	}{
		{path: "/ping", want: true},
		{path: "/health", want: true},
		{path: "/auth/login", want: true},
		{path: "/proxy", want: true},
		{path: "/assets/app.js", want: true},
		{path: "/proxy/extra", want: false},
		{path: "/messages/send", want: false},
		{path: "/webhooks", want: false},
		{path: "/auth/login/extra", want: false},
	}

	for _, tc := range cases {
		got := shouldSkipJWT(tc.path)
		if got != tc.want {
			t.Fatalf("path=%q want=%v got=%v", tc.path, tc.want, got)
		}
	}
}

func TestRewriteAPIPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{path: "/api/messages/send", want: "/messages/send"},
		{path: "/api/webhooks", want: "/webhooks"},
		{path: "/messages/send", want: "/messages/send"},
		{path: "/api", want: "/api"},
		{path: "/apiology", want: "/apiology"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		rewriteAPIPath(req)
		if req.URL.Path != tc.want {
			t.Fatalf("path=%q want=%q got=%q", tc.path, tc.want, req.URL.Path)
		}
	}
}
