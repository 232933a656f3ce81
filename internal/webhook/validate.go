package webhook

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationKind classifies why a target URL was rejected.
type ValidationKind string

const (
	KindInvalidFormat       ValidationKind = "invalid_format"
	KindUnsupportedProtocol ValidationKind = "unsupported_protocol"
	KindDomainNotAllowed    ValidationKind = "domain_not_allowed"
)

// ValidationError is a caller-fixable rejection of a target URL. It is never
// retried automatically.
type ValidationError struct {
	Kind ValidationKind
	URL  string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindUnsupportedProtocol:
		return fmt.Sprintf("webhook URL %q must use http or https", e.URL)
	case KindDomainNotAllowed:
		return fmt.Sprintf("webhook URL %q points at a domain that is not allowed", e.URL)
	default:
		return fmt.Sprintf("webhook URL %q is not a valid absolute URL", e.URL)
	}
}

// ValidateOptions controls target URL validation. Custom marks URLs that came
// from user input rather than a preconfigured default; only those are subject
// to the domain allow-list.
type ValidateOptions struct {
	Custom         bool
	AllowedDomains []string
}

// Validate checks a target webhook URL before any request is issued and
// returns its canonical form. Downstream code must use the returned string,
// not the raw input.
func Validate(raw string, opts ValidateOptions) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Kind: KindInvalidFormat, URL: raw}
	}
	u, err := url.Parse(trimmed)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", &ValidationError{Kind: KindInvalidFormat, URL: raw}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Kind: KindUnsupportedProtocol, URL: raw}
	}
	if opts.Custom && len(opts.AllowedDomains) > 0 {
		host := strings.ToLower(u.Hostname())
		allowed := false
		for _, domain := range opts.AllowedDomains {
			if host == strings.ToLower(strings.TrimSpace(domain)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", &ValidationError{Kind: KindDomainNotAllowed, URL: raw}
		}
	}
	return u.String(), nil
}
