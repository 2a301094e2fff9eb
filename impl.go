package redlock

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpinResult is the single outcome of SpinAsync. A nil Lock with a nil Err
// means every attempt lost the race.
type SpinResult struct {
	Lock *Lock
	Err  error
}

// expiry converts a lease to the millisecond precision stores work with.
// Leases shorter than half a millisecond become 1ms so that no write is
// ever made without an expiry.
func expiry(ttl time.Duration) time.Duration {
	d := ttl.Round(time.Millisecond)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

// Acquire attempts to take the lock on resource for ttl and returns
// immediately. An empty token is replaced by GenerateToken().
//
// It returns the Lock on success, (nil, nil) if the resource is held by
// someone else, and a *StoreError if the store could not be consulted.
func (c *Custodian) Acquire(ctx context.Context, resource string, ttl time.Duration, token string) (*Lock, error) {
	if token == "" {
		token = GenerateToken()
	}

	ctx, span := c.tracer.Start(ctx, "Custodian.Acquire", trace.WithAttributes(
		attribute.String("redlock.resource", resource),
		attribute.Int64("redlock.ttl_ms", expiry(ttl).Milliseconds()),
	))
	defer span.End()

	start := time.Now()
	ok, err := c.store.SetIfAbsent(ctx, resource, token, expiry(ttl))
	c.metrics.observeStore("set_if_absent", start)
	if err != nil {
		err = &StoreError{Op: "acquire", Resource: resource, Err: err}
		c.metrics.acquired(resultError)
		c.logger.Error(ctx, "%v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("redlock.acquired", ok))
	if !ok {
		c.metrics.acquired(resultContended)
		c.logger.Debug(ctx, "lock %q is held by another owner", resource)
		return nil, nil
	}

	c.metrics.acquired(resultAcquired)
	return NewLock(resource, ttl, token), nil
}

// Release deletes the lock from the store if it is still owned by lock's
// token. It reports false, without error, when the lock had already expired
// or been taken over.
func (c *Custodian) Release(ctx context.Context, lock *Lock) (bool, error) {
	if lock == nil {
		return false, ErrNilLock
	}

	ctx, span := c.tracer.Start(ctx, "Custodian.Release", trace.WithAttributes(
		attribute.String("redlock.resource", lock.resource),
	))
	defer span.End()

	start := time.Now()
	ok, err := c.store.CompareAndDelete(ctx, lock.resource, lock.token)
	c.metrics.observeStore("compare_and_delete", start)
	if err != nil {
		err = &StoreError{Op: "release", Resource: lock.resource, Err: err}
		c.metrics.released(resultError)
		c.logger.Error(ctx, "%v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("redlock.released", ok))
	if !ok {
		c.metrics.released(resultLost)
		c.logger.Warn(ctx, "lock %q was no longer held at release", lock.resource)
		return false, nil
	}

	c.metrics.released(resultReleased)
	return true, nil
}

// Spin calls Acquire up to attempts times, waiting interval between
// attempts, and returns the first Lock obtained. Every attempt writes the
// same token; an empty token is generated once up front.
//
// Spin returns (nil, nil) when attempts is not positive or all attempts
// lost the race. A store failure ends the spin immediately without retry.
// Cancelling ctx while waiting returns ctx.Err().
func (c *Custodian) Spin(ctx context.Context, attempts int, interval time.Duration, resource string, ttl time.Duration, token string) (*Lock, error) {
	if attempts <= 0 {
		return nil, nil
	}
	if token == "" {
		token = GenerateToken()
	}

	ctx, span := c.tracer.Start(ctx, "Custodian.Spin", trace.WithAttributes(
		attribute.String("redlock.resource", resource),
		attribute.Int("redlock.attempts", attempts),
	))
	defer span.End()

	for remaining := attempts; ; remaining-- {
		c.metrics.spinAttempt()
		lock, err := c.Acquire(ctx, resource, ttl, token)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if lock != nil {
			span.SetAttributes(attribute.Int("redlock.attempts_used", attempts-remaining+1))
			return lock, nil
		}
		if remaining <= 1 {
			break
		}

		c.logger.Debug(ctx, "retrying lock %q in %s, %d attempts left", resource, interval, remaining-1)
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		case <-c.scheduler.After(interval):
		}
	}

	c.logger.Info(ctx, "gave up on lock %q after %d attempts", resource, attempts)
	return nil, nil
}

// SpinAsync runs Spin in its own goroutine. The returned channel receives
// exactly one SpinResult and is then closed.
func (c *Custodian) SpinAsync(ctx context.Context, attempts int, interval time.Duration, resource string, ttl time.Duration, token string) <-chan SpinResult {
	ch := make(chan SpinResult, 1)
	go func() {
		defer close(ch)
		lock, err := c.Spin(ctx, attempts, interval, resource, ttl, token)
		ch <- SpinResult{Lock: lock, Err: err}
	}()
	return ch
}
