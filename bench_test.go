package workerpool_test

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"testing"

	wp "github.com/azargarov/bankpool"
)

func getenvInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func BenchmarkChannel(b *testing.B) {
	for _, producers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("P=%d", producers), func(b *testing.B) {
			tx, rx := wp.NewChannel[int]()
			defer rx.Close()

			var wg sync.WaitGroup
			per := b.N/producers + 1
			b.ResetTimer()
			for p := 0; p < producers; p++ {
				wg.Add(1)
				go func(urgent bool) {
					defer wg.Done()
					for i := 0; i < per; i++ {
						_ = tx.Send(i, urgent)
					}
				}(p%2 == 0)
			}
			for i := 0; i < per*producers; i++ {
				if _, err := rx.Recv(); err != nil {
					b.Fatal(err)
				}
			}
			wg.Wait()
			tx.Close()
		})
	}
}

func BenchmarkPool(b *testing.B) {
	workers := getenvInt("WORKERS", runtime.GOMAXPROCS(0))
	pinned := getenvInt("PINNED", 0) > 0

	b.Run(fmt.Sprintf("W=%d,PINNED=%t", workers, pinned), func(b *testing.B) {
		p, err := wp.NewPool(wp.Options{Workers: workers, PinWorkers: pinned})
		if err != nil {
			b.Fatal(err)
		}
		var wg sync.WaitGroup
		job := wp.Job{Fn: func(context.Context) error {
			wg.Done()
			return nil
		}}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			wg.Add(1)
			if err := p.Execute(job, i%8 == 0); err != nil {
				b.Fatal(err)
			}
		}
		wg.Wait()
		b.StopTimer()
		p.Stop()
	})
}
