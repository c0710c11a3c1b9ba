package application

import (
	"context"
	"testing"
)

func TestNewSchedulerDefaultsSpec(t *testing.T) {
	sweeper, err := NewSweeper(&stubSweepStore{}, &recordingSink{}, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	scheduler, err := NewScheduler(sweeper, "", nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if scheduler.spec != "* * * * *" {
		t.Fatalf("unexpected default spec: %s", scheduler.spec)
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	sweeper, _ := NewSweeper(&stubSweepStore{}, &recordingSink{}, nil)
	scheduler, err := NewScheduler(sweeper, "not a cron spec", nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scheduler.Start(ctx); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestNewSchedulerRequiresSweeper(t *testing.T) {
	if _, err := NewScheduler(nil, "", nil); err == nil {
		t.Fatal("expected error for nil sweeper")
	}
}
