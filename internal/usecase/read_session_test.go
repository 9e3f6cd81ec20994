package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zorkdi/internal/domain/entity"
)

type countingMarker struct {
	mu    sync.Mutex
	calls int
	fail  int
}

func (m *countingMarker) MarkRead(ctx context.Context, actor Actor, key entity.ThreadKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.fail > 0 {
		m.fail--
		return errors.New("write failed")
	}
	return nil
}

func TestReadSession_MarksOnce(t *testing.T) {
	marker := &countingMarker{}
	session := NewReadSession(marker, alice, entity.GeneralThread("alice"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = session.MarkReadOnce(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, marker.calls)
	assert.True(t, session.Marked())
}

func TestReadSession_FailureKeepsLatchOpen(t *testing.T) {
	marker := &countingMarker{fail: 1}
	session := NewReadSession(marker, alice, entity.GeneralThread("alice"))

	done, err := session.MarkReadOnce(context.Background())
	require.Error(t, err)
	assert.False(t, done)
	assert.False(t, session.Marked())

	done, err = session.MarkReadOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, done)

	done, err = session.MarkReadOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 2, marker.calls)
}

func TestReadSession_ClosedNeverMarks(t *testing.T) {
	marker := &countingMarker{}
	session := NewReadSession(marker, alice, entity.GeneralThread("alice"))
	session.Close()

	done, err := session.MarkReadOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, marker.calls)
}

func TestReadSession_CanceledContext(t *testing.T) {
	marker := &countingMarker{}
	session := NewReadSession(marker, alice, entity.GeneralThread("alice"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.MarkReadOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, marker.calls)
}
