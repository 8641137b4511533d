// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package container

import "sync"

// RefCount tracks the number of holders per key. Acquire reports whether the
// caller is the first holder and Release whether it was the last, so that a
// resource shared between holders is set up and torn down exactly once.
type RefCount[K comparable] struct {
	m map[K]int
	l sync.Mutex
}

func NewRefCount[K comparable]() *RefCount[K] {
	return &RefCount[K]{m: map[K]int{}}
}

func (r *RefCount[K]) Acquire(key K) (first bool) {
	r.l.Lock()
	defer r.l.Unlock()
	r.m[key]++
	return r.m[key] == 1
}

func (r *RefCount[K]) Release(key K) (last bool) {
	r.l.Lock()
	defer r.l.Unlock()
	n, ok := r.m[key]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(r.m, key)
		return true
	}
	r.m[key] = n - 1
	return false
}

func (r *RefCount[K]) Count(key K) int {
	r.l.Lock()
	defer r.l.Unlock()
	return r.m[key]
}
