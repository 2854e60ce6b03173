// Package validation checks URLs and origins that reach system commands or
// security decisions.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// dangerousChars may enable command injection when a URL is handed to a shell
// helper such as xdg-open.
var dangerousChars = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\\", "\n", "\r", " "}

// ValidateURL validates URLs for browser auto-open functionality
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	for _, char := range dangerousChars {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateAllowedOrigin checks one server.allowed_origins entry. Entries are
// either http(s) origins without a path ("https://app.example.com") or host
// patterns ("*.example.com", "localhost:3000").
func ValidateAllowedOrigin(origin string) error {
	if strings.TrimSpace(origin) == "" {
		return fmt.Errorf("origin must not be empty")
	}

	if strings.Contains(origin, "://") {
		parsed, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", origin, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("invalid origin scheme %q: only http and https are allowed", parsed.Scheme)
		}
		if parsed.Host == "" {
			return fmt.Errorf("origin %q has no host", origin)
		}
		if parsed.Path != "" && parsed.Path != "/" {
			return fmt.Errorf("origin %q must not have a path", origin)
		}
		return nil
	}

	if strings.ContainsAny(origin, "/ ") {
		return fmt.Errorf("origin pattern %q must be a bare host", origin)
	}
	return nil
}
