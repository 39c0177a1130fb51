// Package directory provides currency.AddressDirectory implementations:
// a static table, a Terra LCD fetcher, a cache wrapper and a chain.
package directory

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/wormhole-demo/transfer-decoder/internal/currency"
)

// Metadata is the token section of the wormhole data file. It lives in the
// same document as the chain table.
type Metadata struct {
	// TokenContracts lists wrapped-token contract addresses to fetch from an LCD.
	TokenContracts []string `yaml:"token_contract"`
	// TokenContractMeta is keyed by contract address.
	TokenContractMeta map[string]currency.TokenInfo `yaml:"token_contract_meta"`
}

func LoadMetadata(r io.Reader) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read token metadata: %w", err)
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse token metadata: %w", err)
	}
	return &m, nil
}

func LoadMetadataFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token metadata: %w", err)
	}
	defer f.Close()
	return LoadMetadata(f)
}

// Static is an immutable directory indexed by asset address.
type Static struct {
	byAsset map[string]currency.TokenInfo
}

// NewStatic indexes infos by AssetAddress. Entries without an asset
// address are skipped; an empty symbol falls back to the contract address.
func NewStatic(infos []currency.TokenInfo) *Static {
	s := &Static{byAsset: make(map[string]currency.TokenInfo, len(infos))}
	for _, info := range infos {
		if info.AssetAddress == "" {
			continue
		}
		if info.Symbol == "" {
			info.Symbol = info.ContractAddress
		}
		s.byAsset[info.AssetAddress] = info
	}
	return s
}

func NewStaticFromMetadata(m *Metadata) *Static {
	infos := make([]currency.TokenInfo, 0, len(m.TokenContractMeta))
	for contract, info := range m.TokenContractMeta {
		if info.ContractAddress == "" {
			info.ContractAddress = contract
		}
		infos = append(infos, info)
	}
	return NewStatic(infos)
}

func (s *Static) Lookup(_ context.Context, assetIdentifier string) (currency.TokenInfo, error) {
	info, ok := s.byAsset[assetIdentifier]
	if !ok {
		return currency.TokenInfo{}, fmt.Errorf("%w: %s", currency.ErrNotFound, assetIdentifier)
	}
	return info, nil
}

func (s *Static) Len() int {
	return len(s.byAsset)
}
