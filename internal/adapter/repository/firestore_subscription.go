package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zorkdi/internal/domain/entity"
	"zorkdi/pkg/logger"
)

// snapshotSubscription adapts a Firestore query snapshot listener to
// repository.MessageSubscription.
type snapshotSubscription struct {
	updates chan entity.MessageBatch
	cancel  context.CancelFunc
	once    sync.Once
}

// With fullSet every delivery carries the whole result set; otherwise only
// the first does and later ones carry document changes.
func newSnapshotSubscription(parent context.Context, key entity.ThreadKey, query firestore.Query, fullSet bool) *snapshotSubscription {
	ctx, cancel := context.WithCancel(parent)
	s := &snapshotSubscription{
		updates: make(chan entity.MessageBatch, 16),
		cancel:  cancel,
	}
	go s.run(ctx, key, query, fullSet)
	return s
}

func (s *snapshotSubscription) Updates() <-chan entity.MessageBatch {
	return s.updates
}

func (s *snapshotSubscription) Cancel() {
	s.once.Do(s.cancel)
}

func (s *snapshotSubscription) run(ctx context.Context, key entity.ThreadKey, query firestore.Query, fullSet bool) {
	defer close(s.updates)

	iter := query.Snapshots(ctx)
	defer iter.Stop()

	initial := true
	for {
		snap, err := iter.Next()
		if listenerStopped(ctx, "Subscription "+key.String(), err) {
			return
		}

		var docs []*firestore.DocumentSnapshot
		if initial || fullSet {
			docs, err = snap.Documents.GetAll()
			if err != nil {
				logger.Error("Subscription %s: failed to read snapshot: %v", key, err)
				return
			}
		} else {
			for _, change := range snap.Changes {
				if change.Kind == firestore.DocumentRemoved {
					continue
				}
				docs = append(docs, change.Doc)
			}
		}

		batch := entity.MessageBatch{Thread: key, Initial: initial || fullSet}
		for _, doc := range docs {
			msg, err := decodeMessage(key, doc)
			if err != nil {
				logger.Warn("Subscription %s: skipping message %s: %v", key, doc.Ref.ID, err)
				continue
			}
			batch.Messages = append(batch.Messages, msg)
		}
		initial = false

		if len(batch.Messages) == 0 && !batch.Initial {
			continue
		}

		select {
		case s.updates <- batch:
		case <-ctx.Done():
			return
		}
	}
}

// snapshotFeed delivers values produced by a snapshot listener until
// Cancel is called, then closes Updates.
type snapshotFeed[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	once    sync.Once
}

func newSnapshotFeed[T any](parent context.Context, listen func(ctx context.Context, emit func(T) bool)) *snapshotFeed[T] {
	ctx, cancel := context.WithCancel(parent)
	f := &snapshotFeed[T]{
		updates: make(chan T, 16),
		cancel:  cancel,
	}
	go func() {
		defer close(f.updates)
		listen(ctx, func(v T) bool {
			select {
			case f.updates <- v:
				return true
			case <-ctx.Done():
				return false
			}
		})
	}()
	return f
}

func (f *snapshotFeed[T]) Updates() <-chan T {
	return f.updates
}

func (f *snapshotFeed[T]) Cancel() {
	f.once.Do(f.cancel)
}

// listenerStopped reports whether err ends a listener. Only unexpected
// failures are logged.
func listenerStopped(ctx context.Context, name string, err error) bool {
	if err == nil {
		return false
	}
	if err != iterator.Done && ctx.Err() == nil && status.Code(err) != codes.Canceled {
		logger.Error("%s: snapshot listener failed: %v", name, err)
	}
	return true
}
