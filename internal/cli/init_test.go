package cli

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_AllTasksComplete(t *testing.T) {
	var first, second bool

	err := Run(context.Background(),
		func(ctx context.Context) error { first = true; return nil },
		func(ctx context.Context) error { second = true; return nil },
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !first || !second {
		t.Errorf("tasks ran = %v/%v, want both", first, second)
	}
}

func TestRun_FailureCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	cancelled := make(chan struct{})

	err := Run(context.Background(),
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				close(cancelled)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return errors.New("sibling was never cancelled")
			}
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	select {
	case <-cancelled:
	default:
		t.Error("sibling task did not observe cancellation")
	}
}

func TestRun_CancellationIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil on plain cancellation", err)
	}
}
