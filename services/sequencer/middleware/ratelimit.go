// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/frahik/mutant-dna-sequencer/services/sequencer/datatypes"
)

// visitor is one client's bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP.
//
// # Description
//
// Buckets idle for longer than the idle TTL are swept lazily, at most once
// per TTL, so the map stays bounded by the number of recently active
// clients without a background goroutine.
//
// # Thread Safety
//
// Safe for concurrent use.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows rps requests per second per IP with the given
// burst. A burst below 1 is raised to 1. An rps of 0 or less lets every
// request through until SetLimit raises it.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  3 * time.Minute,
		now:      time.Now,
	}
}

// Allow takes a token from ip's bucket. When the bucket is empty it
// returns false and how long until the next token.
func (l *IPRateLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limit <= 0 {
		return true, 0
	}

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// SetLimit changes the rate and burst for new and existing clients.
func (l *IPRateLimiter) SetLimit(rps float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = rate.Limit(rps)
	l.burst = burst
	now := l.now()
	for _, v := range l.visitors {
		v.limiter.SetLimitAt(now, l.limit)
		v.limiter.SetBurstAt(now, burst)
	}
}

// Limit returns the configured requests per second and burst.
func (l *IPRateLimiter) Limit() (float64, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return float64(l.limit), l.burst
}

// Len returns the number of tracked clients.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimit answers 429 with a Retry-After header once a client exhausts
// its bucket. A nil limiter disables limiting.
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, wait := l.Allow(c.ClientIP())
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, datatypes.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
