package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

var (
	errScenarioRead    = errors.New("cannot read scenario file")
	errScenarioInvalid = errors.New("invalid scenario file")
)

// Scenario describes the operation mix a benchmark run replays. It is
// read from a JSONC file (comments and trailing commas allowed), so a
// checked-in scenario can document itself.
type Scenario struct {
	// Ops is the total number of operations to run.
	Ops int `json:"ops"`
	// Seed feeds the PRNG that picks keys and operations.
	Seed int64 `json:"seed"`
	// KeySpace bounds the key range: keys are drawn from [0, KeySpace).
	KeySpace int `json:"key_space"`

	// Relative weights of the three operation kinds. They need not sum
	// to anything in particular; only their ratio matters.
	InsertWeight int `json:"insert_weight"`
	GetWeight    int `json:"get_weight"`
	RemoveWeight int `json:"remove_weight"`
}

func defaultScenario() Scenario {
	return Scenario{
		Ops:          1_000_000,
		Seed:         1,
		KeySpace:     100_000,
		InsertWeight: 4,
		GetWeight:    4,
		RemoveWeight: 2,
	}
}

// loadScenario reads a JSONC scenario from path, filling any field the
// file omits from the defaults. A field the file sets explicitly, even to
// zero, keeps the file's value.
func loadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: %s", errScenarioRead, path)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%w %s: %w", errScenarioInvalid, path, err)
	}

	s := defaultScenario()
	if err := json.Unmarshal(standardized, &s); err != nil {
		return Scenario{}, fmt.Errorf("%w %s: %w", errScenarioInvalid, path, err)
	}
	if s.Ops <= 0 || s.KeySpace <= 0 {
		return Scenario{}, fmt.Errorf("%w %s: ops and key_space must be positive", errScenarioInvalid, path)
	}
	if s.InsertWeight < 0 || s.GetWeight < 0 || s.RemoveWeight < 0 {
		return Scenario{}, fmt.Errorf("%w %s: weights must be non-negative", errScenarioInvalid, path)
	}
	if s.InsertWeight+s.GetWeight+s.RemoveWeight == 0 {
		return Scenario{}, fmt.Errorf("%w %s: at least one weight must be positive", errScenarioInvalid, path)
	}
	return s, nil
}
