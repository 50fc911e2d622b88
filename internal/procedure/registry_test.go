package procedure

import (
	"context"
	"errors"
	"testing"
)

func TestInvokeUnknown(t *testing.T) {
	r := New()

	_, err := r.Invoke(context.Background(), "missing", nil)
	if !errors.Is(err, ErrUnknownProcedure) {
		t.Errorf("Invoke() error = %v, want ErrUnknownProcedure", err)
	}
}

func TestInvoke(t *testing.T) {
	r := New()
	r.Register("echo", func(_ context.Context, args Args) (any, error) {
		return args["v"], nil
	})

	got, err := r.Invoke(context.Background(), "echo", Args{"v": 42})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Invoke() = %v, want 42", got)
	}
}

func TestInvokeHandlerError(t *testing.T) {
	r := New()
	cause := errors.New("device offline")
	r.Register("fail", func(context.Context, Args) (any, error) {
		return nil, cause
	})

	_, err := r.Invoke(context.Background(), "fail", nil)

	if !errors.Is(err, ErrProcedureFailed) {
		t.Errorf("error = %v, want ErrProcedureFailed", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want it to wrap the handler error", err)
	}
	var perr *ProcedureError
	if !errors.As(err, &perr) || perr.Procedure != "fail" {
		t.Errorf("errors.As(*ProcedureError) = %+v", perr)
	}
}

func TestRegisterLastWriterWins(t *testing.T) {
	r := New()
	r.Register("p", func(context.Context, Args) (any, error) { return "first", nil })
	r.Register("p", func(context.Context, Args) (any, error) { return "second", nil })

	got, err := r.Invoke(context.Background(), "p", nil)
	if err != nil || got != "second" {
		t.Errorf("Invoke() = %v, %v; want second", got, err)
	}
	if names := r.Names(); len(names) != 1 {
		t.Errorf("Names() = %v, want one entry", names)
	}
}

func TestUnregister(t *testing.T) {
	r := New()
	r.Register("p", func(context.Context, Args) (any, error) { return nil, nil })
	r.Unregister("p")

	if _, err := r.Invoke(context.Background(), "p", nil); !errors.Is(err, ErrUnknownProcedure) {
		t.Errorf("Invoke() after Unregister error = %v", err)
	}
}
