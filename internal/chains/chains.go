// Package chains maps Wormhole numeric chain ids to chain names.
// A Table is immutable once loaded and safe for concurrent reads.
package chains

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v2"
)

var ErrUnknownChain = errors.New("unknown chain id")

//go:embed chains.yaml
var defaultTable []byte

var (
	defaultOnce sync.Once
	defaultTab  *Table
)

type Table struct {
	names map[uint16]string
}

// file is the on-disk layout. Extra keys (token metadata) are ignored.
type file struct {
	WormholeChainID map[interface{}]string `yaml:"wormhole_chain_id"`
}

// New copies names into a new Table.
func New(names map[uint16]string) *Table {
	t := &Table{names: make(map[uint16]string, len(names))}
	for id, name := range names {
		t.names[id] = name
	}
	return t
}

// Default returns the table compiled into the binary.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := parse(defaultTable)
		if err != nil {
			panic(fmt.Sprintf("embedded chain table: %v", err))
		}
		defaultTab = t
	})
	return defaultTab
}

// Load reads a YAML or JSON document with a wormhole_chain_id object whose
// keys are chain ids as text or integers.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain table: %w", err)
	}
	return parse(data)
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parse(data []byte) (*Table, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chain table: %w", err)
	}
	if len(doc.WormholeChainID) == 0 {
		return nil, fmt.Errorf("chain table has no wormhole_chain_id entries")
	}

	names := make(map[uint16]string, len(doc.WormholeChainID))
	for key, name := range doc.WormholeChainID {
		id, err := strconv.ParseUint(fmt.Sprint(key), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id %v: %w", key, err)
		}
		names[uint16(id)] = name
	}
	return &Table{names: names}, nil
}

func (t *Table) Name(id uint16) (string, error) {
	name, ok := t.names[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownChain, id)
	}
	return name, nil
}

func (t *Table) Len() int {
	return len(t.names)
}
