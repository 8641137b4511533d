// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "vehicle03",
		"exp": jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestTokenFileReauthOnChange(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(file, []byte("first"), 0o600))

	tf, err := NewTokenFile(MethodK8SSAT, file)
	require.NoError(t, err)
	defer tf.Close()

	values, err := tf.InitiateAuth(false)
	require.NoError(t, err)
	require.Equal(t, MethodK8SSAT, values.AuthMethod)
	require.Equal(t, []byte("first"), values.AuthData)

	var reauths atomic.Int32
	tf.AuthSuccess(func() { reauths.Add(1) })

	require.NoError(t, os.WriteFile(file, []byte("second"), 0o600))
	require.Eventually(t, func() bool {
		return reauths.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	values, err = tf.InitiateAuth(true)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), values.AuthData)

	_, err = tf.ContinueAuth(values)
	require.ErrorIs(t, err, ErrUnexpected)
}

func TestTokenFileMissing(t *testing.T) {
	_, err := NewTokenFile(MethodK8SSAT, filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
}

func TestJWTRefreshIn(t *testing.T) {
	j := &JWT{Skew: 30 * time.Second}

	in := j.refreshIn(signedToken(t, time.Now().Add(2*time.Minute)))
	require.InDelta(t, float64(90*time.Second), float64(in), float64(2*time.Second))

	// Already inside the skew window.
	require.Equal(t, time.Second, j.refreshIn(signedToken(t, time.Now())))

	// Not a JWT at all.
	j.Interval = time.Minute
	require.Equal(t, time.Minute, j.refreshIn("opaque"))
}

func TestJWTReauthBeforeExpiry(t *testing.T) {
	var calls atomic.Int32
	j := &JWT{
		Skew: 30 * time.Second,
		Source: func(context.Context) (string, error) {
			calls.Add(1)
			return signedToken(t, time.Now().Add(30*time.Second)), nil
		},
	}
	defer j.Close()

	values, err := j.InitiateAuth(false)
	require.NoError(t, err)
	require.Equal(t, MethodOAuth2JWT, values.AuthMethod)
	require.NotEmpty(t, values.AuthData)

	reauth := make(chan struct{}, 1)
	j.AuthSuccess(func() {
		select {
		case reauth <- struct{}{}:
		default:
		}
	})

	select {
	case <-reauth:
	case <-time.After(5 * time.Second):
		require.Fail(t, "reauthentication was not requested")
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestJWTSourceError(t *testing.T) {
	j := &JWT{Source: func(context.Context) (string, error) {
		return "", context.DeadlineExceeded
	}}
	_, err := j.InitiateAuth(false)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
