// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Well-known enhanced authentication methods.
const (
	MethodK8SSAT    = "K8S-SAT"
	MethodOAuth2JWT = "OAUTH2-JWT"
)

// TokenFile implements an enhanced authentication provider that sends the
// contents of a token file, e.g. a Kubernetes service account token. When the
// file changes, it requests reauthentication with the new token.
type TokenFile struct {
	method   string
	filename string
	watcher  *fsnotify.Watcher

	reauth func()
	token  []byte
	mu     sync.RWMutex
}

// NewTokenFile creates a new token file auth provider for the given
// authentication method and filename.
func NewTokenFile(method, filename string) (*TokenFile, error) {
	token, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, since token rotation commonly replaces the file
	// through a symlink swap.
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	tf := &TokenFile{
		method:   method,
		filename: filename,
		watcher:  watcher,
		token:    token,
	}

	go tf.watch()

	return tf, nil
}

func (tf *TokenFile) InitiateAuth(bool) (*Values, error) {
	tf.mu.RLock()
	defer tf.mu.RUnlock()
	return &Values{AuthMethod: tf.method, AuthData: tf.token}, nil
}

func (*TokenFile) ContinueAuth(*Values) (*Values, error) {
	return nil, ErrUnexpected
}

func (tf *TokenFile) AuthSuccess(requestReauth func()) {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.reauth = requestReauth
}

// Close stops watching the token file.
func (tf *TokenFile) Close() error {
	return tf.watcher.Close()
}

func (tf *TokenFile) watch() {
	for {
		select {
		case evt, ok := <-tf.watcher.Events:
			if !ok {
				return
			}

			if !evt.Has(fsnotify.Write) &&
				!evt.Has(fsnotify.Create) &&
				!evt.Has(fsnotify.Rename) {
				continue
			}

			// Truncating writes show up as an empty file first; skip those so
			// an empty AUTH packet is never sent.
			token, err := os.ReadFile(tf.filename)
			if err != nil || len(token) == 0 {
				continue
			}

			tf.update(token)

		case _, ok := <-tf.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (tf *TokenFile) update(token []byte) {
	tf.mu.Lock()
	if bytes.Equal(tf.token, token) {
		tf.mu.Unlock()
		return
	}
	tf.token = token
	reauth := tf.reauth
	tf.mu.Unlock()

	// Without the callback, auth never succeeded and the next connection
	// attempt reads the new token anyway.
	if reauth != nil {
		reauth()
	}
}
