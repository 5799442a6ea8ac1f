package decoder

import (
	"context"
	"testing"
	"time"
)

func TestKillNilProcessIsNoop(t *testing.T) {
	s := NewProcessSupervisor("", nil)
	if err := s.Kill(context.Background()); err != nil {
		t.Fatalf("Kill on empty supervisor: %v", err)
	}
}

func TestStartAndKillSleepProcess(t *testing.T) {
	s := NewProcessSupervisor("sleep", nil)
	if err := s.Start(context.Background(), []string{"30"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Kill(ctx); err != nil {
		t.Fatalf("Kill: %v", err)
	}
}
