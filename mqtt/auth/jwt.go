// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
	"github.com/golang-jwt/jwt/v5"
)

// JWT implements an enhanced authentication provider for the OAUTH2-JWT
// method. It obtains tokens from Source and schedules reauthentication ahead
// of each token's expiry.
type JWT struct {
	// Source returns a fresh token. It is called for every connection and
	// every reauthentication.
	Source func(context.Context) (string, error)

	// Skew is how long before the token's exp claim to reauthenticate.
	// Defaults to 30s.
	Skew time.Duration

	// Interval is the refresh interval for tokens without an exp claim. Zero
	// disables refresh for such tokens.
	Interval time.Duration

	// Timeout bounds each call to Source. Defaults to 10s.
	Timeout time.Duration

	mu     sync.Mutex
	reauth func()
	timer  wallclock.Timer
	next   time.Duration
	closed bool
}

func (j *JWT) InitiateAuth(bool) (*Values, error) {
	timeout := j.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	token, err := j.Source(ctx)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.next = j.refreshIn(token)
	j.schedule()

	return &Values{AuthMethod: MethodOAuth2JWT, AuthData: []byte(token)}, nil
}

func (*JWT) ContinueAuth(*Values) (*Values, error) {
	return nil, ErrUnexpected
}

func (j *JWT) AuthSuccess(requestReauth func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reauth = requestReauth
	j.schedule()
}

// Close stops any pending refresh.
func (j *JWT) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	if j.timer != nil {
		j.timer.Stop()
	}
}

// Time until the token should be refreshed, or zero for no refresh.
func (j *JWT) refreshIn(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return j.Interval
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return j.Interval
	}

	skew := j.Skew
	if skew == 0 {
		skew = 30 * time.Second
	}
	return max(exp.Sub(wallclock.Instance.Now())-skew, time.Second)
}

// Arm the refresh timer. Must be called with the lock held.
func (j *JWT) schedule() {
	if j.closed || j.reauth == nil || j.next <= 0 {
		return
	}
	if j.timer != nil {
		j.timer.Stop()
	}
	reauth := j.reauth
	j.timer = wallclock.Instance.AfterFunc(j.next, reauth)
	j.next = 0
}
