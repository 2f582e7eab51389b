package state

import (
	"fmt"
	"os"

	"github.com/ethereum-optimism/optimism/op-service/ioutil"
	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// LoadFromFile reads a JSON snapshot and checks it with Validate.
// Paths ending in .gz are decompressed.
func LoadFromFile(path string) (*State, error) {
	s, err := jsonutil.LoadJSON[State](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load state file %q: %w", path, err)
	}
	if s.Memory == nil {
		s.Memory = make(map[hexutil.Uint64]uint8)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteFile writes the snapshot as JSON to path, or to stdout when path is "-".
func (s *State) WriteFile(path string, perm os.FileMode) error {
	if err := jsonutil.WriteJSON(s, ioutil.ToStdOutOrFileOrNoop(path, perm)); err != nil {
		return fmt.Errorf("failed to write state %q: %w", path, err)
	}
	return nil
}
