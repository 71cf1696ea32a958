package logging

import (
	"context"
	"errors"
	"net"

	"github.com/bwmarrin/discordgo"
)

// IsRateLimit reports whether Discord rejected the request with 429. Only
// typed discordgo errors count; message text is never inspected.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == 429 {
		return true
	}
	var limited *discordgo.RateLimitError
	return errors.As(err, &limited)
}

// IsTransient reports whether a remote call is worth retrying: rate limits,
// server errors and network failures. Cancellation never is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsRateLimit(err) {
		return true
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		return rest.Response != nil && rest.Response.StatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
