package inspector

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/spec"
)

type recorder struct {
	Noop
	steps []uint64
}

func (r *recorder) Step(data *StepData) { r.steps = append(r.steps, data.PC) }

func TestPairCallsBothInOrder(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	pair := Compose(a, b)

	pair.Step(&StepData{PC: 1})
	pair.Step(&StepData{PC: 2})

	require.Equal(t, []uint64{1, 2}, a.steps)
	require.Equal(t, []uint64{1, 2}, b.steps)
}

func TestSharedIsNoop(t *testing.T) {
	require.True(t, Shared.Transaction(&spec.TxEnv{}, nil))
	require.NotPanics(t, func() {
		Shared.Step(&StepData{})
		Shared.SelfDestruct(common.Address{}, common.Address{}, nil)
	})
}

func TestComposeShortCircuitsOnFirstCallOutcome(t *testing.T) {
	short := struct {
		Noop
	}{}
	out := &CallOutcome{Success: true}
	first := callStub{out: out}
	pair := Compose(first, short)

	got := pair.Call(&CallInputs{})
	require.Same(t, out, got)
}

type callStub struct {
	Noop
	out *CallOutcome
}

func (c callStub) Call(*CallInputs) *CallOutcome { return c.out }
