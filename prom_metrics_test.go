package workerpool_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	wp "github.com/azargarov/bankpool"
)

func TestPromMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := wp.NewPromMetrics(reg, "bank")
	if err != nil {
		t.Fatalf("NewPromMetrics: %v", err)
	}

	p, err := wp.NewPool(wp.Options{Workers: 1, Metrics: m})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	for i := range 3 {
		if err := p.Execute(wp.Job{Fn: func(context.Context) error { return nil }}, i == 0); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}
	p.Stop()

	if n, err := testutil.GatherAndCount(reg, "bank_pool_executed_jobs_total"); err != nil || n != 1 {
		t.Fatalf("executed series = %d, %v", n, err)
	}
	if n, err := testutil.GatherAndCount(reg, "bank_pool_enqueued_jobs_total"); err != nil || n != 2 {
		t.Fatalf("enqueued series = %d, %v; want urgent and normal", n, err)
	}

	if _, err := wp.NewPromMetrics(reg, "bank"); err == nil {
		t.Fatal("registering twice must fail")
	}
}
