// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"time"

	"github.com/google/uuid"
)

// CancelListenerFunc is the interface that provides a method to cancel
// a listener.
type CancelListenerFunc func()

// Login is the event that is sent when a login against the SunWEG
// platform is attempted.
type Login struct {
	// At holds the time when the login request was made.
	At time.Time

	// Duration is the time waited for the login response.
	Duration time.Duration

	// UUID is the UUID of the request.
	UUID uuid.UUID

	// StatusCode is the status code returned from the login endpoint.
	StatusCode int

	// Expiration is the time the acquired token expires.
	Expiration time.Time

	// Err is the error returned from the login attempt.
	Err error
}

// LoginListener is the interface that must be implemented by types that
// want to receive Login notifications.
type LoginListener interface {
	OnLogin(Login)
}

// LoginListenerFunc is a function type that implements LoginListener.
// It can be used as an adapter for functions that need to implement the
// LoginListener interface.
type LoginListenerFunc func(Login)

func (f LoginListenerFunc) OnLogin(e Login) {
	f(e)
}

// Fetch is the event that is sent when a data request is made.
type Fetch struct {
	// Endpoint is the path portion of the requested endpoint.
	Endpoint string

	// At holds the time when the fetch request was made.
	At time.Time

	// Duration is the time waited for the response, including any
	// re-login and retry.
	Duration time.Duration

	// UUID is the UUID of the request.
	UUID uuid.UUID

	// StatusCode is the final status code returned from the endpoint.
	StatusCode int

	// Retried indicates the request was retried after a re-login.
	Retried bool

	// Err is the error returned from the fetch attempt.
	Err error
}

// FetchListener is the interface that must be implemented by types that
// want to receive Fetch notifications.
type FetchListener interface {
	OnFetch(Fetch)
}

// FetchListenerFunc is a function type that implements FetchListener.
// It can be used as an adapter for functions that need to implement the
// FetchListener interface.
type FetchListenerFunc func(Fetch)

func (f FetchListenerFunc) OnFetch(e Fetch) {
	f(e)
}
