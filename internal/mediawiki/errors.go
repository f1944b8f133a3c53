package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mediawiki: %s failed (%s)", e.Op, e.Status)
	}
	return fmt.Sprintf("mediawiki: %s failed (%s): %s", e.Op, e.Status, e.Body)
}

// APIError is the error envelope MediaWiki returns with HTTP 200.
type APIError struct {
	Op   string `json:"-"`
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s api error %s: %s", e.Op, e.Code, e.Info)
}

// IsMissingPage reports whether err is the API's answer for an unknown page.
func IsMissingPage(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "missingtitle", "nosuchpageid", "invalidtitle":
		return true
	}
	return false
}

// IsRetriable reports whether err represents a transient condition that
// warrants another attempt (rate limits, server errors, timeouts).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "ratelimited" || apiErr.Code == "maxlag" || apiErr.Code == "readonly"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{"connection reset", "connection refused", "temporary failure", "awaiting headers"} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
