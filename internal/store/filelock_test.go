package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickLock(timeout time.Duration) *FileLockConfig {
	retry := 10 * time.Millisecond
	maxRetry := int(timeout / retry)
	if maxRetry < 1 {
		maxRetry = 1
	}
	return &FileLockConfig{LockTimeout: timeout, LockRetry: retry, LockMaxRetry: maxRetry}
}

func TestFileLock_AcquireAndRelease(t *testing.T) {
	lock, err := NewFileLock("ws", t.TempDir(), nil)
	require.NoError(t, err)
	require.True(t, lock.IsLocked())
	assert.GreaterOrEqual(t, lock.HeldDuration(), time.Duration(0))

	lock.Unlock()
	assert.False(t, lock.IsLocked())
	assert.Zero(t, lock.HeldDuration())

	// Second unlock is a no-op.
	lock.Unlock()
	assert.False(t, lock.IsLocked())
}

func TestFileLock_HeldWorkspaceIsConflict(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock("ws", dir, quickLock(100*time.Millisecond))
	require.NoError(t, err)
	defer first.Unlock()

	_, err = NewFileLock("ws", dir, quickLock(100*time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, lecternErrors.ErrConflict)
}

func TestFileLock_WaitsForRelease(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock("ws", dir, nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		first.Unlock()
	}()

	second, err := NewFileLock("ws", dir, quickLock(2*time.Second))
	require.NoError(t, err)
	defer second.Unlock()
	assert.True(t, second.IsLocked())
}

func TestFileLock_ExactlyOneConcurrentWinner(t *testing.T) {
	dir := t.TempDir()

	var winners int32
	var mu sync.Mutex
	var held []*FileLock
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := NewFileLock("ws", dir, quickLock(50*time.Millisecond))
			if err != nil {
				return
			}
			atomic.AddInt32(&winners, 1)
			mu.Lock()
			held = append(held, lock)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, l := range held {
		l.Unlock()
	}
	assert.Equal(t, int32(1), winners)
}

func TestFileLock_RetryStopsAtDeadline(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileLock("ws", dir, nil)
	require.NoError(t, err)
	defer first.Unlock()

	fl := &FileLock{workspaceID: "ws"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = fl.acquireWithRetry(ctx, quickLock(time.Second))
	assert.ErrorIs(t, err, lecternErrors.ErrConflict)
}
