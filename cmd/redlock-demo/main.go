package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/huimingz/redlock"
)

func main() {
	mode := flag.String("mode", "basic", "demo to run: basic or spin")
	backend := flag.String("backend", "redis", "store backend: redis, postgres or memory")
	embedded := flag.Bool("embedded", false, "run against an in-process Redis server")
	trace := flag.Bool("trace", false, "print spans to stdout")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :2112")
	flag.Parse()

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, *backend, *embedded)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	logger := funcr.New(func(prefix, args string) {
		fmt.Println(prefix, args)
	}, funcr.Options{Verbosity: 1})

	opts := []redlock.Option{redlock.WithLogger(redlock.NewLogrLogger(logger))}

	if *trace {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			log.Fatal(err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		defer func() { _ = tp.Shutdown(ctx) }()
		opts = append(opts, redlock.WithTracerProvider(tp))
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, redlock.WithMetrics(reg))
		go func() {
			log.Println(http.ListenAndServe(*metricsAddr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}()
	}

	custodian := redlock.NewCustodian(store, opts...)

	switch *mode {
	case "basic":
		err = runBasic(ctx, custodian)
	case "spin":
		err = runSpin(ctx, custodian)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func openStore(ctx context.Context, backend string, embedded bool) (redlock.Store, func(), error) {
	switch backend {
	case "memory":
		return redlock.NewMemoryStore(), func() {}, nil

	case "postgres":
		dsn := os.Getenv("REDLOCK_EXAMPLE_PG")
		if dsn == "" {
			return nil, nil, fmt.Errorf("REDLOCK_EXAMPLE_PG is not set")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		store := redlock.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	case "redis":
		addr := os.Getenv("REDLOCK_EXAMPLE_HOST")
		if addr == "" {
			addr = "127.0.0.1:6379"
		}
		var mr *miniredis.Miniredis
		stop := make(chan struct{})
		if embedded {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("miniredis run: %w", err)
			}
			addr = mr.Addr()
			// miniredis only expires keys when its clock is advanced.
			go func() {
				t := time.NewTicker(100 * time.Millisecond)
				defer t.Stop()
				for {
					select {
					case <-t.C:
						mr.FastForward(100 * time.Millisecond)
					case <-stop:
						return
					}
				}
			}()
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		cleanup := func() {
			close(stop)
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
		return redlock.NewRedisStore(client), cleanup, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", backend)
}

// runBasic takes a lock, shows that a second owner is turned away and
// releases it.
func runBasic(ctx context.Context, c *redlock.Custodian) error {
	lock, err := c.Acquire(ctx, "01-basic", 60*time.Second, "")
	if err != nil {
		return err
	}
	if lock == nil {
		return fmt.Errorf("failed to acquire lock")
	}
	fmt.Println("acquired", lock)

	other, err := c.Acquire(ctx, "01-basic", 60*time.Second, "")
	if err != nil {
		return err
	}
	fmt.Println("second acquire got a lock:", other != nil)

	ok, err := c.Release(ctx, lock)
	if err != nil {
		return err
	}
	fmt.Println("released:", ok)
	return nil
}

// runSpin holds a lock for 5s while a hopeful owner spins up to 7 times at
// 1s intervals, asking for a 10s lease once it gets through.
func runSpin(ctx context.Context, c *redlock.Custodian) error {
	first, err := c.Acquire(ctx, "02-spin", 5*time.Second, "")
	if err != nil {
		return err
	}
	if first == nil {
		return fmt.Errorf("[first] failed to acquire lock")
	}
	fmt.Println("[first] successfully acquired lock")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-time.After(time.Second):
		case <-gctx.Done():
			return gctx.Err()
		}
		res := <-c.SpinAsync(gctx, 7, time.Second, "02-spin", 10*time.Second, "")
		if res.Err != nil {
			return fmt.Errorf("[hopeful] something bad happened: %w", res.Err)
		}
		if res.Lock == nil {
			fmt.Println("[hopeful] failed to acquire lock")
			return nil
		}
		fmt.Println("[hopeful] successfully acquired lock")
		_, err := c.Release(gctx, res.Lock)
		return err
	})

	err = g.Wait()
	fmt.Println("Bye!")
	return err
}
