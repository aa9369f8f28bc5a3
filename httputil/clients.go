package httputil

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for dealer sites
	API      *http.Client // direct, for the hosted backend and S3
}

func NewClients(proxyURL string) *Clients {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	scraping := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}

// RandomDelay sleeps for a random duration in [min, max). Fixed delays are
// a detectable pattern; randomized ones are friendlier toward dealer sites.
func RandomDelay(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}

// Retry runs fn up to maxRetries times with exponential backoff between
// failures and returns the last error when all attempts are exhausted.
func Retry(maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < maxRetries {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Attempt %d/%d failed: %v, retrying in %v", attempt, maxRetries, lastErr, wait)
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries, lastErr)
}
