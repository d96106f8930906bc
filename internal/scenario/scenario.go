package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one set of run inputs for the simulator.
type Scenario struct {
	Name          string  `yaml:"name"`
	InitialSupply float64 `yaml:"initial_supply"`
	InitialDebt   float64 `yaml:"initial_debt"`
	TargetSupply  float64 `yaml:"target_supply"`
	WalletBalance float64 `yaml:"wallet_balance"`
}

// Validate mirrors the position book's construction invariants so a bad
// scenario file fails before any run starts.
func (s Scenario) Validate() error {
	if s.InitialSupply <= 0 {
		return fmt.Errorf("scenario %q: initial_supply must be positive, got %v", s.Name, s.InitialSupply)
	}
	if s.InitialDebt < 0 {
		return fmt.Errorf("scenario %q: initial_debt must be non-negative, got %v", s.Name, s.InitialDebt)
	}
	if s.TargetSupply <= s.InitialSupply {
		return fmt.Errorf("scenario %q: target_supply must exceed initial_supply (%v), got %v",
			s.Name, s.InitialSupply, s.TargetSupply)
	}
	if s.WalletBalance < 0 {
		return fmt.Errorf("scenario %q: wallet_balance must be non-negative, got %v", s.Name, s.WalletBalance)
	}
	return nil
}

// Defaults returns the built-in scenarios: a medium run and an aggressive
// 4x-growth run with a starved wallet.
func Defaults() []Scenario {
	return []Scenario{
		{Name: "medium", InitialSupply: 1000, InitialDebt: 600, TargetSupply: 1500, WalletBalance: 200},
		{Name: "aggressive", InitialSupply: 500, InitialDebt: 300, TargetSupply: 2000, WalletBalance: 50},
	}
}

// LoadFile reads a list of scenarios from a YAML file and validates each.
func LoadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parse scenario file: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s contains no scenarios", path)
	}
	for i := range scenarios {
		if scenarios[i].Name == "" {
			scenarios[i].Name = fmt.Sprintf("scenario-%d", i+1)
		}
		if err := scenarios[i].Validate(); err != nil {
			return nil, err
		}
	}
	return scenarios, nil
}
