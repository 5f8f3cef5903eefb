package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TokenMetadata is the resolved display information for one mint.
type TokenMetadata struct {
	Name   string
	Symbol string
}

// Resolved reports whether both display fields are present.
func (m TokenMetadata) Resolved() bool {
	return m.Name != "" && m.Symbol != ""
}

// Resolver maps a token identifier to its name and symbol.
type Resolver interface {
	Resolve(ctx context.Context, tokenAddress string) TokenMetadata
}

// Options parameterise the Moralis resolver.
type Options struct {
	BaseURL string
	APIKey  string
	Network string
	Timeout time.Duration
}

// Moralis resolves token metadata via the Moralis Solana gateway.
type Moralis struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewMoralis constructs a Moralis-backed resolver.
func NewMoralis(opts Options, logger zerolog.Logger) *Moralis {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://solana-gateway.moralis.io"
	}
	network := opts.Network
	if network == "" {
		network = "mainnet"
	}
	opts.Network = network

	return &Moralis{
		opts:    opts,
		logger:  logger.With().Str("component", "metadata_resolver").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type metadataResponse struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Resolve fetches name and symbol for a mint. Every failure mode collapses to
// the unresolved zero value: callers only learn that resolution failed, not
// why, and skip the token for this cycle.
func (r *Moralis) Resolve(ctx context.Context, tokenAddress string) TokenMetadata {
	endpoint := fmt.Sprintf("%s/token/%s/%s/metadata", r.baseURL, r.opts.Network, url.PathEscape(tokenAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		r.logger.Error().Err(err).Str("token", tokenAddress).Msg("create metadata request")
		return TokenMetadata{}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", r.opts.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error().Err(err).Str("token", tokenAddress).Msg("metadata request failed")
		return TokenMetadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn().Int("status", resp.StatusCode).Str("token", tokenAddress).Msg("metadata not resolved")
		return TokenMetadata{}
	}

	var payload metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		r.logger.Error().Err(err).Str("token", tokenAddress).Msg("decode metadata response")
		return TokenMetadata{}
	}

	meta := TokenMetadata{Name: payload.Name, Symbol: payload.Symbol}
	if !meta.Resolved() {
		return TokenMetadata{}
	}

	r.logger.Debug().Str("token", tokenAddress).Str("name", meta.Name).Str("symbol", meta.Symbol).Msg("metadata resolved")
	return meta
}

var _ Resolver = (*Moralis)(nil)
