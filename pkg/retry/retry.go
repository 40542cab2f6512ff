// Copyright (c) 2018 Western Digital Corporation or its affiliates. All rights reserved.
// SPDX-License-Identifier: MIT

// Package retry runs a task repeatedly with randomized exponential backoff.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Task to execute with retries in the Do method. On every execution it
// receives the attempt number, starting at zero. A nil return ends the loop.
type Task func(attempt int) error

// Retrier describes how often and for how long a Task is retried.
type Retrier struct {
	// MinSleep is the shortest and initial sleep time to be
	// used during the retry loop.
	MinSleep time.Duration

	// MaxSleep is the longest sleep time to be used during
	// the retry loop.
	MaxSleep time.Duration

	// MaxRetry, if greater than zero, will be used to bound the
	// total time to execute the retry loop.
	MaxRetry time.Duration

	// MaxNumRetries, if greater than zero, will limit the number of attempts.
	MaxNumRetries int

	// Retriable, if set, decides whether an error is worth another attempt.
	// Errors it rejects are returned right away. All errors are retried if it
	// is nil.
	Retriable func(error) bool
}

// Do executes task until it succeeds, fails with an error that isn't
// retriable, or the retry budget runs out. It returns nil on success, the
// task's last error otherwise, or the context's error if ctx is done first.
func (r Retrier) Do(ctx context.Context, task Task) error {
	maxSleep := r.MaxSleep
	if maxSleep < r.MinSleep {
		maxSleep = r.MinSleep
	}
	backoff := r.MinSleep
	start := time.Now()
	var err error
	for i := 0; ; i++ {
		if i > 0 && (r.MaxNumRetries > 0 && i >= r.MaxNumRetries ||
			r.MaxRetry > 0 && time.Since(start)+backoff > r.MaxRetry) {
			return err
		}
		if err = task(i); err == nil {
			return nil
		}
		if r.Retriable != nil && !r.Retriable(err) {
			return err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(float64(backoff) * (1.75 + 0.5*rand.Float64()))
		if backoff > maxSleep {
			backoff = maxSleep + time.Duration(float64(r.MinSleep)*rand.Float64())
		}
	}
}
