// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

// Package sunweg is a typed client for the SunWEG platform endpoints,
// layered on top of the session manager.  It owns the response shapes
// and the display value parsing, nothing about authentication.
package sunweg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNilFetcher = errors.New("nil fetcher")

	// ErrBadPayload is returned when the platform answers with a 2xx
	// but the payload does not carry the expected data.
	ErrBadPayload = errors.New("unexpected payload")
)

const (
	summaryEndpoint = "/getdadosresumo"
	totalsEndpoint  = "/gettotalizadores"
)

// Fetcher performs an authenticated request against the platform.
// *session.Session satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// Client is a typed view of the SunWEG data endpoints.
type Client struct {
	fetcher Fetcher
}

// New creates a client around the given fetcher.
func New(fetcher Fetcher) (*Client, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	return &Client{fetcher: fetcher}, nil
}

type summaryResponse struct {
	Success bool           `json:"success"`
	Plants  []PlantSummary `json:"usinas"`
}

type totalsResponse struct {
	Success bool   `json:"success"`
	Data    Totals `json:"dados"`
}

// summaryParams asks for every plant unfiltered.  Filtering by plant id
// on the server side makes the endpoint return 500s, so all plants are
// requested and filtered locally.
func summaryParams() url.Values {
	params := url.Values{}
	params.Set("usina", "")
	params.Set("id", "")
	params.Set("situacao", "null")
	params.Set("limite", "100")
	params.Set("quantidade", "0")
	params.Set("paginaAtual", "1")
	params.Set("agrupado", "false")
	params.Set("gettotalizadores", "false")
	return params
}

// Plants returns a mapping of plant id to display name for every plant
// the account can see.
func (c *Client) Plants(ctx context.Context) (map[string]string, error) {
	resp, err := c.summary(ctx)
	if err != nil {
		return nil, err
	}

	plants := make(map[string]string, len(resp.Plants))
	for _, p := range resp.Plants {
		if p.ID.String() != "" && p.Name != "" {
			plants[p.ID.String()] = p.Name
		}
	}
	return plants, nil
}

// PlantSummary returns the summary for the given plant.  If no plant
// matches the id, the first reported plant is used as a fallback.
func (c *Client) PlantSummary(ctx context.Context, plantID string) (PlantSummary, error) {
	resp, err := c.summary(ctx)
	if err != nil {
		return PlantSummary{}, err
	}

	if len(resp.Plants) == 0 {
		return PlantSummary{}, fmt.Errorf("%w: no plants reported", ErrBadPayload)
	}

	for _, p := range resp.Plants {
		if p.ID.String() == plantID {
			return p, nil
		}
	}

	return resp.Plants[0], nil
}

// Totals returns the aggregated metrics across all plants.
func (c *Client) Totals(ctx context.Context) (Totals, error) {
	raw, err := c.fetcher.Fetch(ctx, totalsEndpoint, nil)
	if err != nil {
		return Totals{}, err
	}

	var resp totalsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Totals{}, errors.Join(err, ErrBadPayload)
	}
	if !resp.Success {
		return Totals{}, fmt.Errorf("%w: totals request reported failure", ErrBadPayload)
	}

	return resp.Data, nil
}

func (c *Client) summary(ctx context.Context) (summaryResponse, error) {
	raw, err := c.fetcher.Fetch(ctx, summaryEndpoint, summaryParams())
	if err != nil {
		return summaryResponse{}, err
	}

	var resp summaryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return summaryResponse{}, errors.Join(err, ErrBadPayload)
	}
	if !resp.Success {
		return summaryResponse{}, fmt.Errorf("%w: summary request reported failure", ErrBadPayload)
	}

	return resp, nil
}
