// Package calendar implements booking.Calendar and booking.Mailer on top of
// Google Calendar, Gmail and SendGrid, plus an in-memory demo calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"physio-booking/internal/booking"
)

// PrimaryCalendar is the calendar id of the authorized account's own calendar.
const PrimaryCalendar = "primary"

// TokenProvider hands out the bearer token for the practice's Google account.
// It returns an error wrapping booking.ErrUnauthorized when no usable token
// exists.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// GoogleConfig tunes how the Google API clients are built.
type GoogleConfig struct {
	// CalendarID defaults to PrimaryCalendar.
	CalendarID string
	// Endpoint overrides the API base URL; empty uses Google's.
	Endpoint string
	// HTTPClient is the transport the authorized client is layered on.
	HTTPClient *http.Client
}

// clientOptions builds per-call options carrying the current token. Every
// call asks the provider again so a re-authorization takes effect at once.
func clientOptions(ctx context.Context, tokens TokenProvider, cfg GoogleConfig) ([]option.ClientOption, error) {
	if tokens == nil {
		return nil, booking.ErrUnauthorized
	}
	tok, err := tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, booking.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", booking.ErrUnauthorized, err)
	}
	if tok == nil || !tok.Valid() {
		return nil, booking.ErrUnauthorized
	}

	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)))}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return opts, nil
}

// mapError converts a Google API failure into the booking error taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", booking.ErrUnauthorized, gerr.Message)
		case http.StatusNotFound, http.StatusGone:
			return booking.ErrNotFound
		}
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &booking.BackendError{Status: gerr.Code, Message: msg}
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", booking.ErrUnauthorized, err)
	}
	return err
}
