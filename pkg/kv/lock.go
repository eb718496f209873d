package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quatton/qsite/pkg/qerr"
)

// DefaultLockTTL bounds how long a crashed deployment blocks the next one.
const DefaultLockTTL = 30 * time.Minute

// LockKey returns the lock key for one project/stack deployment.
func LockKey(project, stack string) string {
	return "qsite:lock:" + project + "/" + stack
}

// Lease is a held deployment lock.
type Lease struct {
	store Store
	key   string
	token []byte
}

// Token returns the owner token written to the key.
func (l *Lease) Token() string {
	return string(l.token)
}

// Release frees the lock if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if _, err := l.store.CompareAndDelete(ctx, l.key, l.token); err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.key, err)
	}
	return nil
}

// Acquire takes key for ttl. If someone else holds it, the error is a
// deployment_locked naming the holder.
func Acquire(ctx context.Context, store Store, key string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}
	token := []byte(id.String())

	ok, err := store.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		holder, err := store.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("reading lock holder: %w", err)
		}
		return nil, qerr.WithSubject(qerr.CodeDeploymentLocked, key, fmt.Errorf("held by %s", holderName(holder)))
	}
	return &Lease{store: store, key: key, token: token}, nil
}

func holderName(holder []byte) string {
	if len(holder) == 0 {
		return "an expired holder"
	}
	return string(holder)
}
