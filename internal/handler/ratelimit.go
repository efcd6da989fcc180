package handler

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// 空闲超过 limiterIdleTTL 的令牌桶已经回满，删除后重建与保留等价
const limiterIdleTTL = 5 * time.Minute

// ipRateLimiter 按客户端 IP 限制登录频率
type ipRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	lastSweep  time.Time
	rate       rate.Limit
	burst      int
	now        func() time.Time
}

// perMinute <= 0 时不限制
func newIPRateLimiter(perMinute int) *ipRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &ipRateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		lastSweep:  time.Now(),
		rate:       rate.Limit(float64(perMinute) / 60.0),
		burst:      perMinute,
		now:        time.Now,
	}
}

func (l *ipRateLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.evict(now.Add(-limiterIdleTTL))
		l.lastSweep = now
	}
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = limiter
	}
	l.lastAccess[ip] = now
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// evict 删除 cutoff 之前最后一次访问的 IP，调用方需持有锁
func (l *ipRateLimiter) evict(cutoff time.Time) {
	for ip, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.limiters, ip)
			delete(l.lastAccess, ip)
		}
	}
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
