package spec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// Hardfork spec IDs. The numbering follows go-ethereum's own fork ordering
// rather than any external FFI layer's numbering (the teacher's
// core/vm/spec.go mapped onto a REVM integer this module has no use for,
// since it drives go-ethereum's real EVM in-process).
const (
	SpecFrontier = iota
	SpecHomestead
	SpecTangerineWhistle
	SpecSpuriousDragon
	SpecByzantium
	SpecConstantinople
	SpecPetersburg
	SpecIstanbul
	SpecBerlin
	SpecLondon
	SpecArrowGlacier
	SpecGrayGlacier
	SpecShanghai
	SpecCancun
	SpecPrague
	SpecOsaka
)

// ResolveSpecID maps a go-ethereum ChainConfig and a block's (number,
// timestamp) to this package's SpecID enum, following the same
// highest-fork-first cascade as the teacher's core/vm/spec.go SpecID
// function.
func ResolveSpecID(cfg *params.ChainConfig, number uint64, timestamp uint64) uint8 {
	bn := new(big.Int).SetUint64(number)
	switch {
	case cfg.IsOsaka(bn, timestamp):
		return SpecOsaka
	case cfg.IsPrague(bn, timestamp):
		return SpecPrague
	case cfg.IsCancun(bn, timestamp):
		return SpecCancun
	case cfg.IsShanghai(bn, timestamp):
		return SpecShanghai
	case cfg.IsLondon(bn):
		if cfg.IsGrayGlacier(bn) {
			return SpecGrayGlacier
		}
		if cfg.IsArrowGlacier(bn) {
			return SpecArrowGlacier
		}
		return SpecLondon
	case cfg.IsBerlin(bn):
		return SpecBerlin
	case cfg.IsIstanbul(bn):
		return SpecIstanbul
	case cfg.IsPetersburg(bn):
		return SpecPetersburg
	case cfg.IsConstantinople(bn):
		return SpecConstantinople
	case cfg.IsByzantium(bn):
		return SpecByzantium
	case cfg.IsEIP158(bn):
		return SpecSpuriousDragon
	case cfg.IsEIP150(bn):
		return SpecTangerineWhistle
	case cfg.IsHomestead(bn):
		return SpecHomestead
	default:
		return SpecFrontier
	}
}

// Rules derives go-ethereum's own params.Rules from a CfgEnv and BlockEnv,
// for handing to vm.NewEVM / StateDB.Prepare. It reconstructs a minimal
// ChainConfig whose fork-activation blocks are all zero except at the point
// implied by SpecID, since CfgEnv does not retain the original
// ChainConfig once resolved.
func (c CfgEnv) Rules(block BlockEnv) params.Rules {
	cfg := ChainConfigForSpec(c.ChainID, c.SpecID)
	merged := block.PrevRandao != (common.Hash{})
	return cfg.Rules(new(big.Int).SetUint64(block.Number), merged, block.Timestamp)
}

func ChainConfigForSpec(chainID uint64, specID uint8) *params.ChainConfig {
	cfg := &params.ChainConfig{ChainID: new(big.Int).SetUint64(chainID)}
	zero := big.NewInt(0)
	if specID >= SpecHomestead {
		cfg.HomesteadBlock = zero
	}
	if specID >= SpecTangerineWhistle {
		cfg.EIP150Block = zero
	}
	if specID >= SpecSpuriousDragon {
		cfg.EIP155Block = zero
		cfg.EIP158Block = zero
	}
	if specID >= SpecByzantium {
		cfg.ByzantiumBlock = zero
	}
	if specID >= SpecConstantinople {
		cfg.ConstantinopleBlock = zero
	}
	if specID >= SpecPetersburg {
		cfg.PetersburgBlock = zero
	}
	if specID >= SpecIstanbul {
		cfg.IstanbulBlock = zero
	}
	if specID >= SpecBerlin {
		cfg.BerlinBlock = zero
	}
	if specID >= SpecLondon {
		cfg.LondonBlock = zero
	}
	if specID >= SpecArrowGlacier {
		cfg.ArrowGlacierBlock = zero
	}
	if specID >= SpecGrayGlacier {
		cfg.GrayGlacierBlock = zero
	}
	if specID >= SpecShanghai {
		t := uint64(0)
		cfg.ShanghaiTime = &t
	}
	if specID >= SpecCancun {
		t := uint64(0)
		cfg.CancunTime = &t
	}
	if specID >= SpecPrague {
		t := uint64(0)
		cfg.PragueTime = &t
	}
	return cfg
}
