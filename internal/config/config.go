// Package config loads named presets for the policy toggles and default
// chain id of a spec.CfgEnv. The spec package does not read these presets
// itself; a caller copies a preset's fields into the CfgEnv it hands to the
// TransitionSpec builder. This is library configuration, not a CLI: the out-of-scope command-line
// front-ends (spec.md §1) are expected to load their own flags and call into
// the spec.Builder directly; this package only centralizes the handful of
// named presets ("bypass-all", "mainnet-mirror", ...) that show up
// repeatedly in tests and one-shot scripts.
package config

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Preset is a named bundle of the six policy toggles from spec.md's CfgEnv,
// plus the default chain id a preset assumes.
type Preset struct {
	Name                  string `mapstructure:"name"`
	ChainID               uint64 `mapstructure:"chain_id"`
	DisableBalanceCheck   bool   `mapstructure:"disable_balance_check"`
	DisableBaseFee        bool   `mapstructure:"disable_base_fee"`
	DisableBlockGasLimit  bool   `mapstructure:"disable_block_gas_limit"`
	DisableEIP3607        bool   `mapstructure:"disable_eip3607"`
	DisableGasRefund      bool   `mapstructure:"disable_gas_refund"`
	DisableNonceCheck     bool   `mapstructure:"disable_nonce_check"`
}

var builtin = []byte(`
presets:
  - name: mainnet-mirror
    chain_id: 1
  - name: bypass-all
    chain_id: 1
    disable_balance_check: true
    disable_base_fee: true
    disable_block_gas_limit: true
    disable_eip3607: true
    disable_gas_refund: true
    disable_nonce_check: true
`)

type registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

var global = newRegistry(builtin)

func newRegistry(yaml []byte) *registry {
	r := &registry{presets: make(map[string]Preset)}
	if err := r.loadYAML(yaml); err != nil {
		// The built-in presets are compiled in; a failure here is a
		// programmer error, not a runtime condition callers can recover
		// from.
		panic(fmt.Sprintf("config: built-in presets malformed: %v", err))
	}
	return r
}

func (r *registry) loadYAML(yaml []byte) error {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(yaml)); err != nil {
		return fmt.Errorf("config: read preset bundle: %w", err)
	}
	var parsed struct {
		Presets []Preset `mapstructure:"presets"`
	}
	if err := v.Unmarshal(&parsed); err != nil {
		return fmt.Errorf("config: unmarshal preset bundle: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range parsed.Presets {
		r.presets[p.Name] = p
	}
	return nil
}

// LoadPresets merges an additional YAML document of presets into the global
// registry, overriding any preset with the same name.
func LoadPresets(yaml []byte) error {
	return global.loadYAML(yaml)
}

// LookupPreset looks up a named preset. The two built-in presets, "mainnet-mirror"
// and "bypass-all", are always available.
func LookupPreset(name string) (Preset, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	p, ok := global.presets[name]
	return p, ok
}
