package main

import (
	"errors"
	"testing"
	"time"
)

func TestRetryDelayFromError(t *testing.T) {
	cases := []struct {
		err  error
		want time.Duration
	}{
		{nil, 0},
		{errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{errors.New("too many requests"), 3 * time.Second},
		{errors.New("connection reset"), time.Second},
	}
	for _, c := range cases {
		if got := retryDelayFromError(c.err); got != c.want {
			t.Fatalf("retryDelayFromError(%v) = %v want %v", c.err, got, c.want)
		}
	}
}
