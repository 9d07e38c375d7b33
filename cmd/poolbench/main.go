// poolbench exercises a pool against a real backing store: it fans a number
// of workers over scoped checkouts and prints the pool's final statistics.
package main

import (
	"context"
	"database/sql/driver"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/connorjcantrell/dbpool"
	"github.com/connorjcantrell/dbpool/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		workers    = flag.Int("workers", 20, "concurrent workers")
		iterations = flag.Int("iterations", 50, "checkouts per worker")
		hold       = flag.Duration("hold", 20*time.Millisecond, "how long each worker holds its connection")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("starting: %s, workers=%d iterations=%d", cfg, *workers, *iterations)

	p, err := dbpool.Open(cfg.Factory.Driver, cfg.Factory.DSN, cfg.PoolConfig())
	if err != nil {
		log.Fatalf("open pool: %v", err)
	}
	p.SetLogger(cfg.NewLogger())

	var failures atomic.Uint64
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < *iterations; j++ {
				err := p.With(context.Background(), func(conn driver.Conn) error {
					time.Sleep(*hold)
					return nil
				})
				if err != nil {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	stats := p.Stats()
	fmt.Printf("done in %v: checkouts=%d opens=%d reuses=%d discards=%d timeouts=%d failures=%d\n",
		elapsed, uint64(*workers)*uint64(*iterations)-failures.Load(),
		stats.Opens, stats.Reuses, stats.Discards, stats.Timeouts, failures.Load())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
