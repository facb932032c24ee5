// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"net/http"
	"time"

	"github.com/sunweg-labs/sunweg-agent/internal/session/event"
)

type optionFunc func(*Session) error

var _ Option = optionFunc(nil)

func (f optionFunc) apply(s *Session) error {
	return f(s)
}

type nilOptionFunc func(*Session)

var _ Option = nilOptionFunc(nil)

func (f nilOptionFunc) apply(s *Session) error {
	f(s)
	return nil
}

// BaseURL is the base URL of the SunWEG platform API.
func BaseURL(url string) Option {
	return nilOptionFunc(
		func(s *Session) {
			s.baseURL = url
		})
}

// Credential is the username/password pair used to log in.  It is
// supplied once and owned exclusively by the session.
func Credential(username, password string) Option {
	return nilOptionFunc(
		func(s *Session) {
			s.username = username
			s.password = password
		})
}

// HTTPClient is the HTTP client used for login and data requests.
func HTTPClient(client *http.Client) Option {
	return nilOptionFunc(
		func(s *Session) {
			if client == nil {
				client = http.DefaultClient
			}
			s.client = client
		})
}

// LoginPath overrides the login endpoint path.  The default is
// DefaultLoginPath.
func LoginPath(path string) Option {
	return nilOptionFunc(
		func(s *Session) {
			if path == "" {
				path = DefaultLoginPath
			}
			s.loginPath = path
		})
}

// UserAgent overrides the User-Agent header sent on every request.
func UserAgent(ua string) Option {
	return nilOptionFunc(
		func(s *Session) {
			if ua != "" {
				s.userAgent = ua
			}
		})
}

// TokenTTL is the assumed lifetime of a token.  A value of zero means
// the default is used.
func TokenTTL(ttl time.Duration) Option {
	return optionFunc(
		func(s *Session) error {
			if ttl < 0 {
				return ErrInvalidInput
			}
			s.tokenTTL = ttl
			if s.tokenTTL == 0 {
				s.tokenTTL = DefaultTokenTTL
			}
			return nil
		})
}

// ExpiryMargin is the safety margin applied when deciding if a held
// token is still usable.  A value of zero means the default is used.
func ExpiryMargin(margin time.Duration) Option {
	return optionFunc(
		func(s *Session) error {
			if margin < 0 {
				return ErrInvalidInput
			}
			s.expiryMargin = margin
			if s.expiryMargin == 0 {
				s.expiryMargin = DefaultExpiryMargin
			}
			return nil
		})
}

// Rejection is the predicate that decides whether a response means the
// presented token was rejected server side.  The platform's exact
// signal is not documented, so it is pluggable.  The default treats a
// 401 status as a rejection.
func Rejection(rejected func(*http.Response) bool) Option {
	return nilOptionFunc(
		func(s *Session) {
			if rejected == nil {
				rejected = func(resp *http.Response) bool {
					return resp.StatusCode == http.StatusUnauthorized
				}
			}
			s.rejected = rejected
		})
}

// NowFunc is the function used to obtain the current time.
func NowFunc(nowFunc func() time.Time) Option {
	return nilOptionFunc(
		func(s *Session) {
			if nowFunc == nil {
				nowFunc = time.Now
			}
			s.nowFunc = nowFunc
		})
}

// AddLoginListener adds a listener for login events.  If the optional
// cancel parameter is provided, it is set to a function that can be
// used to cancel the listener.
func AddLoginListener(listener event.LoginListener, cancel ...*event.CancelListenerFunc) Option {
	return nilOptionFunc(
		func(s *Session) {
			cncl := s.loginListeners.Add(listener)
			if len(cancel) > 0 && cancel[0] != nil {
				*cancel[0] = event.CancelListenerFunc(cncl)
			}
		})
}

// AddFetchListener adds a listener for fetch events.  If the optional
// cancel parameter is provided, it is set to a function that can be
// used to cancel the listener.
func AddFetchListener(listener event.FetchListener, cancel ...*event.CancelListenerFunc) Option {
	return nilOptionFunc(
		func(s *Session) {
			cncl := s.fetchListeners.Add(listener)
			if len(cancel) > 0 && cancel[0] != nil {
				*cancel[0] = event.CancelListenerFunc(cncl)
			}
		})
}
