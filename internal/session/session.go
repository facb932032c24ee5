// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sunweg-labs/sunweg-agent/internal/session/event"
	"github.com/xmidt-org/eventor"
)

var (
	ErrInvalidInput = fmt.Errorf("invalid input")

	// ErrAuth is returned when the platform rejects the credential, or
	// when a re-login followed by a retry is still rejected.  Callers
	// should treat this as unrecoverable without user action.
	ErrAuth = fmt.Errorf("authentication rejected")

	// ErrTransport is returned for network or protocol level failures.
	// Callers may retry at their own pace.
	ErrTransport = fmt.Errorf("transport failure")
)

const (
	// DefaultLoginPath is the login endpoint of the SunWEG platform.
	DefaultLoginPath = "/login/autenticacao"

	// DefaultTokenTTL is the assumed lifetime of a token.  The login
	// response does not carry an expiration, so the lifetime is assumed
	// and the token is renewed once it has been held this long.
	DefaultTokenTTL = 30 * time.Minute

	// DefaultExpiryMargin is subtracted from the token lifetime when
	// deciding if a held token is still usable, so a token is never
	// used at the very edge of its life.
	DefaultExpiryMargin = 30 * time.Second

	// TokenHeader carries the session token on data requests.
	TokenHeader = "X-Auth-Token-Update"

	defaultUserAgent = "Mozilla/5.0"
)

/*
Notes:
  - The network interface is set via the http.Client.
  - The per-request timeout is set via the http.Client.
  - TLS settings are set via the http.Client.
*/
type Session struct {
	m              sync.Mutex
	nowFunc        func() time.Time
	loginListeners eventor.Eventor[event.LoginListener]
	fetchListeners eventor.Eventor[event.FetchListener]

	// What we are using to log in and fetch data.

	baseURL      string
	username     string
	password     string
	loginPath    string
	userAgent    string
	client       *http.Client
	tokenTTL     time.Duration
	expiryMargin time.Duration
	rejected     func(*http.Response) bool

	// What we are holding between calls.
	token *token
}

// token is the credential issued by the platform along with the local
// bookkeeping needed to decide when it must be replaced.  It is always
// replaced wholesale, never partially updated.
type token struct {
	value    string
	issuedAt time.Time
	ttl      time.Duration
}

// usable reports whether the token may still decorate a new request at
// the given time, honoring the safety margin.
func (t *token) usable(now time.Time, margin time.Duration) bool {
	if t == nil {
		return false
	}
	return now.Before(t.issuedAt.Add(t.ttl - margin))
}

// Option is the interface implemented by types that can be used to
// configure the session.
type Option interface {
	apply(*Session) error
}

// New creates a new session manager object.
func New(opts ...Option) (*Session, error) {
	required := []Option{
		baseURLVador(),
		credentialVador(),
		marginVador(),
	}

	s := Session{
		client:       http.DefaultClient,
		nowFunc:      time.Now,
		loginPath:    DefaultLoginPath,
		userAgent:    defaultUserAgent,
		tokenTTL:     DefaultTokenTTL,
		expiryMargin: DefaultExpiryMargin,
		rejected: func(resp *http.Response) bool {
			return resp.StatusCode == http.StatusUnauthorized
		},
	}

	opts = append(opts, required...)

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt.apply(&s)
		if err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// Fetch performs an authenticated GET against the given endpoint and
// returns the raw payload uninterpreted.
//
// A login is performed first if no token is held or the held token is
// past its lifetime.  If the platform rejects the token anyway, exactly
// one re-login and one retry are attempted before the call fails with
// ErrAuth.  The whole check-renew-fetch sequence is a critical section,
// so concurrent callers never trigger redundant logins.
func (s *Session) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	s.m.Lock()
	defer s.m.Unlock()

	fe := event.Fetch{
		Endpoint: endpoint,
		At:       s.nowFunc(),
	}
	if tid, err := uuid.NewRandom(); err == nil {
		fe.UUID = tid
	}

	if !s.token.usable(s.nowFunc(), s.expiryMargin) {
		if err := s.login(ctx); err != nil {
			fe.Duration = s.nowFunc().Sub(fe.At)
			fe.Err = err
			return nil, s.dispatch(fe)
		}
	}

	body, code, rejected, err := s.get(ctx, endpoint, params)
	if rejected {
		// The platform invalidated the token server side even though it
		// looked valid locally.  Replace it and retry once.
		fe.Retried = true
		if err = s.login(ctx); err == nil {
			body, code, rejected, err = s.get(ctx, endpoint, params)
			if rejected {
				err = fmt.Errorf("%w: token rejected after re-login", ErrAuth)
			}
		}
	}

	fe.Duration = s.nowFunc().Sub(fe.At)
	fe.StatusCode = code
	fe.Err = err
	if err != nil {
		return nil, s.dispatch(fe)
	}

	return body, s.dispatch(fe)
}

// loginResponse is the shape of the login endpoint's reply.
type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// loginRequest mirrors the payload the platform expects.  The service
// accepts a login without CAPTCHA tokens in this context.
type loginRequest struct {
	Username   string `json:"usuario"`
	Password   string `json:"senha"`
	RememberMe bool   `json:"rememberMe"`
	Accepted   bool   `json:"aceito"`
}

// login authenticates with the platform and replaces the held token.
// The caller must hold s.m.
func (s *Session) login(ctx context.Context) error {
	le := event.Login{At: s.nowFunc()}
	if tid, err := uuid.NewRandom(); err == nil {
		le.UUID = tid
	}

	payload, err := json.Marshal(loginRequest{
		Username: s.username,
		Password: s.password,
	})
	if err != nil {
		le.Err = errors.Join(err, ErrTransport)
		return s.dispatch(le)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+s.loginPath, bytes.NewReader(payload))
	if err != nil {
		le.Err = errors.Join(err, ErrTransport)
		return s.dispatch(le)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	le.Duration = s.nowFunc().Sub(le.At)
	if err != nil {
		le.Err = errors.Join(err, ErrTransport)
		return s.dispatch(le)
	}
	defer resp.Body.Close()

	le.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		le.Err = fmt.Errorf("%w: login status %d", ErrAuth, resp.StatusCode)
		return s.dispatch(le)
	case resp.StatusCode != http.StatusOK:
		le.Err = fmt.Errorf("%w: login status %d", ErrTransport, resp.StatusCode)
		return s.dispatch(le)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		le.Err = errors.Join(err, ErrTransport)
		return s.dispatch(le)
	}

	if !lr.Success || lr.Token == "" {
		le.Err = fmt.Errorf("%w: login response missing token", ErrAuth)
		return s.dispatch(le)
	}

	s.token = &token{
		value:    lr.Token,
		issuedAt: s.nowFunc(),
		ttl:      s.tokenTTL,
	}
	le.Expiration = s.token.issuedAt.Add(s.token.ttl)

	return s.dispatch(le)
}

// get performs a single authenticated GET.  The rejected return is true
// when the platform signaled that the presented token is no longer
// accepted.  The caller must hold s.m.
func (s *Session) get(ctx context.Context, endpoint string, params url.Values) (body json.RawMessage, code int, rejected bool, err error) {
	u := s.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, false, errors.Join(err, ErrTransport)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set(TokenHeader, s.token.value)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, false, errors.Join(err, ErrTransport)
	}
	defer resp.Body.Close()

	if s.rejected(resp) {
		return nil, resp.StatusCode, true, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, false,
			fmt.Errorf("%w: status %d from %s", ErrTransport, resp.StatusCode, endpoint)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, false, errors.Join(err, ErrTransport)
	}

	return body, resp.StatusCode, false, nil
}

// dispatch dispatches the event to the listeners and returns the error
// that should be returned by the caller.
func (s *Session) dispatch(evnt any) error {
	switch evnt := evnt.(type) {
	case event.Login:
		s.loginListeners.Visit(func(listener event.LoginListener) {
			listener.OnLogin(evnt)
		})
		return evnt.Err
	case event.Fetch:
		s.fetchListeners.Visit(func(listener event.FetchListener) {
			listener.OnFetch(evnt)
		})
		return evnt.Err
	}

	panic("unknown event type")
}
