package webhook

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		opts     ValidateOptions
		want     string
		wantKind ValidationKind
	}{
		{
			name: "https passes",
			raw:  "https://flows.example.com/webhook/abc",
			want: "https://flows.example.com/webhook/abc",
		},
		{
			name: "http passes",
			raw:  "http://127.0.0.1:5678/webhook/abc",
			want: "http://127.0.0.1:5678/webhook/abc",
		},
		{
			name:     "ftp rejected",
			raw:      "ftp://x.com",
			wantKind: KindUnsupportedProtocol,
		},
		{
			name:     "garbage rejected",
			raw:      "not a url",
			wantKind: KindInvalidFormat,
		},
		{
			name:     "empty rejected",
			raw:      "   ",
			wantKind: KindInvalidFormat,
		},
		{
			name:     "relative rejected",
			raw:      "/webhook/abc",
			wantKind: KindInvalidFormat,
		},
		{
			name:     "custom url outside allow-list",
			raw:      "https://evil.com/hook",
			opts:     ValidateOptions{Custom: true, AllowedDomains: []string{"allowed.com"}},
			wantKind: KindDomainNotAllowed,
		},
		{
			name: "custom url on allow-list keeps path and query",
			raw:  "https://allowed.com/path?q=1",
			opts: ValidateOptions{Custom: true, AllowedDomains: []string{"allowed.com"}},
			want: "https://allowed.com/path?q=1",
		},
		{
			name: "allow-list is case-insensitive",
			raw:  "https://ALLOWED.com/hook",
			opts: ValidateOptions{Custom: true, AllowedDomains: []string{"allowed.com"}},
			want: "https://ALLOWED.com/hook",
		},
		{
			name: "allow-list ignored for preconfigured urls",
			raw:  "https://anywhere.example/hook",
			opts: ValidateOptions{Custom: false, AllowedDomains: []string{"allowed.com"}},
			want: "https://anywhere.example/hook",
		},
		{
			name: "no allow-list means any custom domain",
			raw:  "https://anywhere.example/hook",
			opts: ValidateOptions{Custom: true},
			want: "https://anywhere.example/hook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Validate(tt.raw, tt.opts)
			if tt.wantKind != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Kind != tt.wantKind {
					t.Fatalf("kind = %s, want %s", verr.Kind, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("canonical = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCanonicalizes(t *testing.T) {
	t.Parallel()

	got, err := Validate("  https://allowed.com/path ", ValidateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://allowed.com/path" {
		t.Fatalf("canonical = %q", got)
	}
}
