/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"strings"
	"time"
)

// rateLimitMarkers are matched case-insensitively against an error's
// message. New provider error formats that use none of these phrases are
// not detected.
var rateLimitMarkers = []string{
	"rate limit",
	"429",
	"throttle",
	"quota exceeded",
	"capacity",
	"limit exceeded",
	"too many requests",
}

// IsRateLimited reports whether err looks like backend throttling.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// LinearBackoff returns unit scaled by the 1-based attempt number.
func LinearBackoff(unit time.Duration, attempt int) time.Duration {
	return unit * time.Duration(attempt+1)
}
