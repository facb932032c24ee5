// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/retry"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/session"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
)

func newTestClient(t *testing.T) *sunweg.Client {
	t.Helper()

	s, err := session.New(
		session.BaseURL("https://api.sunweg.net/v2"),
		session.Credential("someone@example.com", "hunter2"),
	)
	require.NoError(t, err)

	client, err := sunweg.New(s)
	require.NoError(t, err)
	return client
}

func Test_provideDataClient(t *testing.T) {
	assert := assert.New(t)

	s, err := session.New(
		session.BaseURL("https://api.sunweg.net/v2"),
		session.Credential("someone@example.com", "hunter2"),
	)
	assert.NoError(err)

	got, err := provideDataClient(s)
	assert.NoError(err)
	assert.NotNil(got)
}

func Test_providePoller(t *testing.T) {
	tests := []struct {
		description string
		in          pollerIn
		wantErr     bool
	}{
		{
			description: "defaults",
			in: pollerIn{
				Website: Website{PlantID: "101"},
			},
		}, {
			description: "fully populated",
			in: pollerIn{
				Cfg: Poller{
					Interval:     time.Minute,
					FetchTimeout: 10 * time.Second,
					RetryPolicy: retry.Config{
						Interval:   time.Minute,
						Multiplier: 2.0,
						MaxRetries: 3,
					},
				},
				Website: Website{PlantID: "101"},
			},
		}, {
			description: "negative interval",
			in: pollerIn{
				Cfg:     Poller{Interval: -time.Minute},
				Website: Website{PlantID: "101"},
			},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			tc.in.Client = newTestClient(t)
			tc.in.Logger = zap.NewNop()

			got, err := providePoller(tc.in)

			if tc.wantErr {
				assert.Error(err)
				assert.Nil(got.Poller)
				return
			}

			assert.NoError(err)
			assert.NotNil(got.Poller)
			assert.Len(got.Cancels, 1)
		})
	}
}
