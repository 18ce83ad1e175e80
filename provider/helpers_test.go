package provider_test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/kbukum/procexec/provider"
)

var errTransient = errors.New("transient failure")

// outcome mimics a process result: it can succeed while reporting errors.
type outcome struct {
	out    string
	failed bool
}

func (o outcome) HasErrors() bool { return o.failed }

func echo(name string) provider.RequestResponse[string, outcome] {
	return provider.Func[string, outcome]{
		ProviderName: name,
		Fn: func(_ context.Context, in string) (outcome, error) {
			return outcome{out: "echo:" + in}, nil
		},
	}
}

func failing(name string) provider.RequestResponse[string, outcome] {
	return provider.Func[string, outcome]{
		ProviderName: name,
		Fn: func(_ context.Context, _ string) (outcome, error) {
			return outcome{}, errTransient
		},
	}
}

// flaky fails the first failUntil calls.
type flaky struct {
	calls     atomic.Int32
	failUntil int32
}

func (f *flaky) Name() string                       { return "flaky" }
func (f *flaky) IsAvailable(_ context.Context) bool { return true }
func (f *flaky) Execute(_ context.Context, in string) (outcome, error) {
	n := f.calls.Add(1)
	if n <= f.failUntil {
		return outcome{out: "partial", failed: true}, errTransient
	}
	return outcome{out: "ok:" + in}, nil
}
