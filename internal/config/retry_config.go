package config

import "time"

type RetryConfig interface {
	GetMaxRetries() int
	GetRetryBaseDelay() time.Duration
	GetRequestTimeout() time.Duration
	GetRequestsPerSecond() float64
}

type Retry struct{}

var _ RetryConfig = Retry{}

// GetMaxRetries is the total number of attempts per request, including the first
func (Retry) GetMaxRetries() int {
	n := getInt("MAX_RETRIES", 3)
	if n < 1 {
		return 1
	}
	return n
}

func (Retry) GetRetryBaseDelay() time.Duration {
	return getDuration("RETRY_BASE_DELAY", time.Second)
}

func (Retry) GetRequestTimeout() time.Duration {
	return getDuration("REQUEST_TIMEOUT", 30*time.Second)
}

// GetRequestsPerSecond limits outbound requests client side. 0 disables the limiter.
func (Retry) GetRequestsPerSecond() float64 {
	return getFloat("REQUESTS_PER_SECOND", 0)
}
