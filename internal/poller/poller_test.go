// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/retry"
	"github.com/sunweg-labs/sunweg-agent/internal/poller/event"
	"github.com/sunweg-labs/sunweg-agent/internal/session"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
)

// fakeSource provides canned results and can be told to fail.
type fakeSource struct {
	m     sync.Mutex
	err   error
	calls int
}

func (f *fakeSource) fail(err error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.err = err
}

func (f *fakeSource) cycleCount() int {
	f.m.Lock()
	defer f.m.Unlock()
	return f.calls
}

func (f *fakeSource) PlantSummary(_ context.Context, plantID string) (sunweg.PlantSummary, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.err != nil {
		return sunweg.PlantSummary{}, f.err
	}
	return sunweg.PlantSummary{Name: "Sitio Norte", Power: 3.2}, nil
}

func (f *fakeSource) Totals(context.Context) (sunweg.Totals, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return sunweg.Totals{}, f.err
	}
	return sunweg.Totals{PlantCount: 2}, nil
}

func TestNew(t *testing.T) {
	src := &fakeSource{}

	simplest := []Option{
		DataSource(src),
		PlantID("101"),
	}

	tests := []struct {
		description string
		opt         Option
		opts        []Option
		expectedErr error
		check       func(*assert.Assertions, *Poller)
	}{
		{
			description: "nil option",
			expectedErr: ErrInvalidInput,
		}, {
			description: "simplest config",
			opts:        simplest,
			check: func(assert *assert.Assertions, p *Poller) {
				assert.Equal(DefaultInterval, p.interval)
				assert.Equal(DefaultFetchTimeout, p.fetchTimeout)
				assert.NotNil(p.retryPolicyFactory)
				assert.NotNil(p.nowFunc)
			},
		}, {
			description: "common config",
			opts: append(simplest, []Option{
				Interval(time.Minute),
				FetchTimeout(5 * time.Second),
				RetryPolicy(retry.Config{Interval: time.Second}),
			}...),
			check: func(assert *assert.Assertions, p *Poller) {
				assert.Equal(time.Minute, p.interval)
				assert.Equal(5*time.Second, p.fetchTimeout)
			},
		}, {
			description: "missing source",
			opts: []Option{
				PlantID("101"),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "missing plant id",
			opts: []Option{
				DataSource(src),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "negative interval",
			opts: append(simplest, []Option{
				Interval(-1),
			}...),
			expectedErr: ErrInvalidInput,
		}, {
			description: "interval (default)",
			opts: append(simplest, []Option{
				Interval(0),
			}...),
			check: func(assert *assert.Assertions, p *Poller) {
				assert.Equal(DefaultInterval, p.interval)
			},
		}, {
			description: "negative fetch timeout",
			opts: append(simplest, []Option{
				FetchTimeout(-1),
			}...),
			expectedErr: ErrInvalidInput,
		}, {
			description: "nil retry policy",
			opts: append(simplest, []Option{
				RetryPolicy(nil),
			}...),
			expectedErr: ErrInvalidInput,
		}, {
			description: "nil now func",
			opts: append(simplest, []Option{
				NowFunc(nil),
			}...),
			check: func(assert *assert.Assertions, p *Poller) {
				assert.NotNil(p.nowFunc)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			opts := append(tc.opts, tc.opt)

			got, err := New(opts...)

			if tc.check != nil {
				tc.check(assert, got)
			}

			if tc.expectedErr == nil {
				assert.NotNil(got)
				assert.NoError(err)
				return
			}

			assert.Nil(got)
			assert.ErrorIs(err, tc.expectedErr)
		})
	}
}

func TestPollingEndToEnd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	src := &fakeSource{}
	updates := make(chan event.Update, 16)

	p, err := New(
		DataSource(src),
		PlantID("101"),
		Interval(10*time.Millisecond),
		RetryPolicy(retry.Config{Interval: time.Millisecond}),
		AddUpdateListener(event.UpdateListenerFunc(
			func(e event.Update) {
				select {
				case updates <- e:
				default:
				}
			})),
	)
	require.NoError(err)
	require.NotNil(p)

	p.Start()

	// Multiple calls to Start is ok.
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.WaitUntilFetched(ctx)

	select {
	case e := <-updates:
		assert.NoError(e.Err)
		assert.False(e.AuthFailure)
		assert.False(e.RetryingAt.IsZero())
	case <-ctx.Done():
		require.Fail("no update event")
	}

	snapshot, ok := p.Latest()
	assert.True(ok)
	assert.Equal("Sitio Norte", snapshot.Plant.Name)
	assert.False(snapshot.At.IsZero())
	assert.True(p.Healthy())
}

func TestPollingTransportFailureKeepsSnapshot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	src := &fakeSource{}
	updates := make(chan event.Update, 16)

	p, err := New(
		DataSource(src),
		PlantID("101"),
		Interval(10*time.Millisecond),
		RetryPolicy(retry.Config{Interval: time.Millisecond}),
		AddUpdateListener(event.UpdateListenerFunc(
			func(e event.Update) {
				updates <- e
			})),
	)
	require.NoError(err)

	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.WaitUntilFetched(ctx)

	// Let the first cycle land, then break the transport.
	waitFor(t, ctx, updates, func(e event.Update) bool { return e.Err == nil })
	src.fail(fmt.Errorf("%w: connection refused", session.ErrTransport))

	e := waitFor(t, ctx, updates, func(e event.Update) bool { return e.Err != nil })
	assert.False(e.AuthFailure)

	// The last good snapshot stays available while unhealthy.
	snapshot, ok := p.Latest()
	assert.True(ok)
	assert.Equal("Sitio Norte", snapshot.Plant.Name)
	assert.False(p.Healthy())

	// Recovery resumes normal reporting.
	src.fail(nil)
	waitFor(t, ctx, updates, func(e event.Update) bool { return e.Err == nil })
	assert.True(p.Healthy())
}

func TestPollingAuthFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	src := &fakeSource{}
	src.fail(fmt.Errorf("%w: bad credential", session.ErrAuth))
	updates := make(chan event.Update, 16)

	p, err := New(
		DataSource(src),
		PlantID("101"),
		Interval(10*time.Millisecond),
		AddUpdateListener(event.UpdateListenerFunc(
			func(e event.Update) {
				updates <- e
			})),
	)
	require.NoError(err)

	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e := waitFor(t, ctx, updates, func(e event.Update) bool { return e.Err != nil })
	assert.True(e.AuthFailure)

	_, ok := p.Latest()
	assert.False(ok)
	assert.False(p.Healthy())
}

func waitFor(t *testing.T, ctx context.Context, updates <-chan event.Update, match func(event.Update) bool) event.Update {
	t.Helper()

	for {
		select {
		case e := <-updates:
			if match(e) {
				return e
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for update event")
			return event.Update{}
		}
	}
}
