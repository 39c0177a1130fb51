package directory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

const (
	DefaultLCDURL = "https://lcd.terra.dev"

	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	multiplier      = 1.5
	maxElapsedTime  = 30 * time.Second

	defaultRetryInterval = time.Minute
)

type contractInfoResponse struct {
	ContractInfo struct {
		Address string          `json:"address"`
		InitMsg json.RawMessage `json:"init_msg"`
	} `json:"contract_info"`
}

type tokenInitMsg struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Decimals     *uint8 `json:"decimals"`
	AssetAddress string `json:"asset_address"`
}

// LCD resolves Wormhole wrapped tokens by reading the instantiate message
// of known token contracts from a Terra LCD endpoint. The contract index is
// built on first lookup. Contracts that could not be fetched are retried by
// later lookups once RetryInterval has passed.
type LCD struct {
	baseURL    string
	contracts  []string
	httpClient *http.Client
	logger     *zap.Logger

	// RetryInterval is the minimum time between attempts to fetch
	// contracts that failed before.
	RetryInterval time.Duration

	mu        sync.Mutex
	pending   []string
	lastFetch time.Time
	byAsset   map[string]currency.TokenInfo
}

func NewLCD(logger *zap.Logger, baseURL string, contracts []string) *LCD {
	if baseURL == "" {
		baseURL = DefaultLCDURL
	}
	return &LCD{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		contracts: contracts,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:        logger.With(zap.String("component", "LCDDirectory")),
		RetryInterval: defaultRetryInterval,
		pending:       append([]string(nil), contracts...),
		byAsset:       map[string]currency.TokenInfo{},
	}
}

func (d *LCD) Lookup(ctx context.Context, assetIdentifier string) (currency.TokenInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if info, ok := d.byAsset[assetIdentifier]; ok {
		return info, nil
	}

	if len(d.pending) > 0 && (d.lastFetch.IsZero() || time.Since(d.lastFetch) >= d.RetryInterval) {
		if err := d.fetchLocked(ctx, d.pending); err != nil {
			return currency.TokenInfo{}, err
		}
	}

	info, ok := d.byAsset[assetIdentifier]
	if !ok {
		return currency.TokenInfo{}, fmt.Errorf("%w: %s", currency.ErrNotFound, assetIdentifier)
	}
	return info, nil
}

// Refresh fetches every configured contract again and replaces the index.
func (d *LCD) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.byAsset
	d.byAsset = map[string]currency.TokenInfo{}
	if err := d.fetchLocked(ctx, d.contracts); err != nil {
		d.byAsset = previous
		return err
	}
	return nil
}

// fetchLocked indexes contracts and leaves the ones that failed in pending.
// Contracts that are not currencies are settled and never fetched again.
func (d *LCD) fetchLocked(ctx context.Context, contracts []string) error {
	d.logger.Info("Fetching token contracts", zap.Int("contracts", len(contracts)), zap.String("lcd", d.baseURL))

	var failed []string
	for _, contract := range contracts {
		info, ok, err := d.ContractInfo(ctx, contract)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("token contract fetch interrupted: %w", ctx.Err())
			}
			d.logger.Warn("Token contract fetch failed, will retry",
				zap.String("contract", contract),
				zap.Duration("retryIn", d.RetryInterval),
				zap.Error(err))
			failed = append(failed, contract)
			continue
		}
		if !ok || info.AssetAddress == "" {
			d.logger.Debug("Contract is not a wrapped token", zap.String("contract", contract))
			continue
		}
		d.byAsset[info.AssetAddress] = info
	}

	d.pending = failed
	d.lastFetch = time.Now()
	d.logger.Info("Token contracts indexed",
		zap.Int("tokens", len(d.byAsset)),
		zap.Int("pending", len(failed)))
	return nil
}

// ContractInfo fetches one contract. ok is false when the contract's
// instantiate message has no decimals, meaning it is not a currency.
func (d *LCD) ContractInfo(ctx context.Context, contract string) (currency.TokenInfo, bool, error) {
	body, err := d.retryHTTPRequest(ctx, func() ([]byte, error) {
		return d.get(ctx, "/terra/wasm/v1beta1/contracts/"+contract)
	})
	if err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("failed to fetch contract %s: %w", contract, err)
	}

	var resp contractInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("failed to unmarshal contract info: %w", err)
	}

	msg, err := decodeInitMsg(resp.ContractInfo.InitMsg)
	if err != nil {
		return currency.TokenInfo{}, false, fmt.Errorf("contract %s: %w", contract, err)
	}
	if msg == nil || msg.Decimals == nil {
		return currency.TokenInfo{}, false, nil
	}

	address := resp.ContractInfo.Address
	if address == "" {
		address = contract
	}
	symbol := msg.Symbol
	if symbol == "" {
		symbol = address
	}

	return currency.TokenInfo{
		Name:            msg.Name,
		Symbol:          symbol,
		Decimals:        *msg.Decimals,
		ContractAddress: address,
		AssetAddress:    msg.AssetAddress,
	}, true, nil
}

// decodeInitMsg accepts the message inline or as base64 encoded JSON.
func decodeInitMsg(raw json.RawMessage) (*tokenInitMsg, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("invalid init_msg: %w", err)
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 init_msg: %w", err)
		}
		raw = decoded
	}

	var msg tokenInitMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("invalid init_msg: %w", err)
	}
	return &msg, nil
}

func (d *LCD) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.baseURL+path, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("client error %d: %s", resp.StatusCode, string(body)))
	}
	return body, nil
}

func (d *LCD) retryHTTPRequest(ctx context.Context, operation func() ([]byte, error)) ([]byte, error) {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = initialInterval
	exponentialBackoff.MaxInterval = maxInterval
	exponentialBackoff.Multiplier = multiplier

	return backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(exponentialBackoff),
		backoff.WithMaxElapsedTime(maxElapsedTime),
	)
}
