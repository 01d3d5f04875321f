// Package provider holds the one external interface that needs both the
// spec and state packages at once (spec.md §6.2); BcProvider itself lives in
// package spec since the builder (C2) is its primary consumer and spec
// cannot import this package without a cycle.
package provider

import (
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// BcStateProvider builds a layered state pinned just before a given
// transaction's position (spec.md §6.2): a CachedState over a ReadOnlyRef
// that answers as of the end of the previous transaction.
type BcStateProvider interface {
	BcStateAt(pos spec.TxPosition) (*state.CachedState, error)
}
