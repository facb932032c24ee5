// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package event

import "time"

// CancelListenerFunc is the interface that provides a method to cancel
// a listener.
type CancelListenerFunc func()

// Update is the event that is sent after every polling cycle, whether
// it succeeded or not.
type Update struct {
	// At holds the time when the cycle started.
	At time.Time

	// Duration is the time the cycle took.
	Duration time.Duration

	// RetryingAt is the time of the next cycle.
	RetryingAt time.Time

	// AuthFailure indicates the cycle failed because the platform no
	// longer accepts the configured credential.  User action is needed.
	AuthFailure bool

	// Err is the error that failed the cycle, if any.
	Err error
}

// UpdateListener is the interface that must be implemented by types
// that want to receive Update notifications.
type UpdateListener interface {
	OnUpdate(Update)
}

// UpdateListenerFunc is a function type that implements UpdateListener.
// It can be used as an adapter for functions that need to implement the
// UpdateListener interface.
type UpdateListenerFunc func(Update)

func (f UpdateListenerFunc) OnUpdate(e Update) {
	f(e)
}
