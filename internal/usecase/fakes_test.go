package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/errors"
)

type fakeSubscription struct {
	updates  chan entity.MessageBatch
	once     sync.Once
	mu       sync.Mutex
	canceled bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{updates: make(chan entity.MessageBatch, 16)}
}

func (s *fakeSubscription) Updates() <-chan entity.MessageBatch { return s.updates }

func (s *fakeSubscription) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		s.canceled = true
		s.mu.Unlock()
		close(s.updates)
	})
}

func (s *fakeSubscription) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// push is a no-op once the subscription is cancelled.
func (s *fakeSubscription) push(batch entity.MessageBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canceled {
		return
	}
	s.updates <- batch
}

// fakeFeed stands in for the record and query listeners.
type fakeFeed[T any] struct {
	updates  chan T
	once     sync.Once
	mu       sync.Mutex
	canceled bool
}

func newFakeFeed[T any]() *fakeFeed[T] {
	return &fakeFeed[T]{updates: make(chan T, 64)}
}

func (f *fakeFeed[T]) Updates() <-chan T { return f.updates }

func (f *fakeFeed[T]) Cancel() {
	f.once.Do(func() {
		f.mu.Lock()
		f.canceled = true
		f.mu.Unlock()
		close(f.updates)
	})
}

func (f *fakeFeed[T]) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

func (f *fakeFeed[T]) push(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.canceled {
		return
	}
	f.updates <- value
}

type fakeThreadRepo struct {
	mu        sync.Mutex
	clock     time.Time
	seq       int
	threads   map[string]*entity.Thread
	messages  map[string][]*entity.Message
	subs      map[string][]*fakeSubscription
	watches   map[string][]*fakeFeed[*entity.Thread]
	appendErr error
	incrErr   error
	resetErr  error
	resets    int
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		threads:  make(map[string]*entity.Thread),
		messages: make(map[string][]*entity.Message),
		subs:     make(map[string][]*fakeSubscription),
		watches:  make(map[string][]*fakeFeed[*entity.Thread]),
	}
}

func (r *fakeThreadRepo) thread(key entity.ThreadKey) *entity.Thread {
	t, ok := r.threads[key.String()]
	if !ok {
		t = &entity.Thread{Key: key, UserID: key.UserID}
		r.threads[key.String()] = t
	}
	return t
}

func (r *fakeThreadRepo) AppendMessage(ctx context.Context, key entity.ThreadKey, msg *entity.Message, meta repository.ThreadMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}

	r.seq++
	r.clock = r.clock.Add(time.Second)
	msg.ID = fmt.Sprintf("m%03d", r.seq)
	msg.Thread = key
	msg.CreatedAt = r.clock
	r.messages[key.String()] = append(r.messages[key.String()], msg)

	t := r.thread(key)
	t.LastMessage = meta.Preview
	t.LastMessageAt = msg.CreatedAt
	t.LastSenderRole = meta.SenderRole
	if meta.UserName != "" {
		t.UserName = meta.UserName
		t.UserEmail = meta.UserEmail
	}
	r.notifyLocked(key)
	return nil
}

func (r *fakeThreadRepo) GetThread(ctx context.Context, key entity.ThreadKey) (*entity.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.threads[key.String()]
	if !ok {
		return nil, errors.NotFound("Thread", nil)
	}
	copied := *t
	return &copied, nil
}

func (r *fakeThreadRepo) ListGeneralThreads(ctx context.Context) ([]*entity.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var threads []*entity.Thread
	for _, t := range r.threads {
		if t.Key.IsGeneral() {
			copied := *t
			threads = append(threads, &copied)
		}
	}
	return threads, nil
}

func (r *fakeThreadRepo) ListMessages(ctx context.Context, key entity.ThreadKey, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := append([]*entity.Message(nil), r.messages[key.String()]...)
	sort.Slice(messages, func(i, j int) bool { return messages[i].Before(messages[j]) })
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func (r *fakeThreadRepo) Subscribe(ctx context.Context, key entity.ThreadKey) (repository.MessageSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := newFakeSubscription()
	r.subs[key.String()] = append(r.subs[key.String()], sub)
	return sub, nil
}

// WatchThread delivers the current record at once, like a snapshot
// listener, and again after every mutation of it.
func (r *fakeThreadRepo) WatchThread(ctx context.Context, key entity.ThreadKey) (repository.ThreadSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed := newFakeFeed[*entity.Thread]()
	r.watches[key.String()] = append(r.watches[key.String()], feed)
	feed.push(r.currentLocked(key))
	return feed, nil
}

func (r *fakeThreadRepo) currentLocked(key entity.ThreadKey) *entity.Thread {
	t, ok := r.threads[key.String()]
	if !ok {
		return &entity.Thread{Key: key, UserID: key.UserID}
	}
	copied := *t
	return &copied
}

func (r *fakeThreadRepo) notifyLocked(key entity.ThreadKey) {
	for _, feed := range r.watches[key.String()] {
		feed.push(r.currentLocked(key))
	}
}

func (r *fakeThreadRepo) threadWatches(key entity.ThreadKey) []*fakeFeed[*entity.Thread] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watches[key.String()]
}

func (r *fakeThreadRepo) threadSubs(key entity.ThreadKey) []*fakeSubscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[key.String()]
}

func (r *fakeThreadRepo) IncrementUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.incrErr != nil {
		return false, r.incrErr
	}

	var msg *entity.Message
	for _, m := range r.messages[key.String()] {
		if m.ID == messageID {
			msg = m
		}
	}
	if msg == nil {
		return false, errors.NotFound("Message", nil)
	}
	if msg.Counted {
		return false, nil
	}
	msg.Counted = true

	t := r.thread(key)
	if reader == entity.RoleStaff {
		t.UnreadByStaff++
	} else {
		t.UnreadByClient++
	}
	r.notifyLocked(key)
	return true, nil
}

func (r *fakeThreadRepo) ResetUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resetErr != nil {
		return r.resetErr
	}
	r.resets++

	t := r.thread(key)
	if reader == entity.RoleStaff {
		t.UnreadByStaff = 0
	} else {
		t.UnreadByClient = 0
	}
	r.notifyLocked(key)
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	watches map[entity.Role][]*fakeFeed[[]*entity.User]
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:   make(map[string]*entity.User),
		watches: make(map[entity.Role][]*fakeFeed[[]*entity.User]),
	}
	for _, u := range users {
		copied := *u
		r.users[u.ID] = &copied
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		copied := *user
		r.users[user.ID] = &copied
		return &copied, nil
	}
	if user.Email != "" {
		existing.Email = user.Email
	}
	if user.DisplayName != "" {
		existing.DisplayName = user.DisplayName
	}
	copied := *existing
	return &copied, nil
}

func (r *fakeUserRepo) UpdateDeviceToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.FCMToken = token
	return nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byRoleLocked(role), nil
}

func (r *fakeUserRepo) WatchByRole(ctx context.Context, role entity.Role) (repository.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed := newFakeFeed[[]*entity.User]()
	r.watches[role] = append(r.watches[role], feed)
	feed.push(r.byRoleLocked(role))
	return feed, nil
}

func (r *fakeUserRepo) byRoleLocked(role entity.Role) []*entity.User {
	var users []*entity.User
	for _, u := range r.users {
		if u.Role == role {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users
}

// add stores a new profile and notifies role watchers, as a sign-up would.
func (r *fakeUserRepo) add(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied
	for _, feed := range r.watches[user.Role] {
		feed.push(r.byRoleLocked(user.Role))
	}
}

func (r *fakeUserRepo) roleWatches(role entity.Role) []*fakeFeed[[]*entity.User] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watches[role]
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	seq      int
	projects map[string]*entity.Project
}

func newFakeProjectRepo(projects ...*entity.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[string]*entity.Project)}
	for _, p := range projects {
		copied := *p
		r.projects[p.ID] = &copied
	}
	return r
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	project.ID = fmt.Sprintf("p%d", r.seq)
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, errors.NotFound("Project", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var projects []*entity.Project
	for _, p := range r.projects {
		if p.OwnerID == ownerID {
			copied := *p
			projects = append(projects, &copied)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (r *fakeProjectRepo) ListAll(ctx context.Context, limit, offset int) ([]*entity.Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var projects []*entity.Project
	for _, p := range r.projects {
		copied := *p
		projects = append(projects, &copied)
	}
	return projects, len(projects), nil
}

func (r *fakeProjectRepo) UpdateStatus(ctx context.Context, id string, next entity.ProjectStatus, check func(entity.ProjectStatus) error) (*entity.Project, entity.ProjectStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, "", errors.NotFound("Project", nil)
	}
	previous := p.Status
	if err := check(previous); err != nil {
		return nil, "", err
	}
	p.Status = next
	copied := *p
	return &copied, previous, nil
}

type fakeContactRepo struct {
	mu       sync.Mutex
	messages []*entity.ContactMessage
	err      error
}

func (r *fakeContactRepo) Create(ctx context.Context, message *entity.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	message.ID = fmt.Sprintf("c%d", len(r.messages)+1)
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeContactRepo) List(ctx context.Context, limit, offset int) ([]*entity.ContactMessage, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages, len(r.messages), nil
}

func (r *fakeContactRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			m.Status = entity.ContactStatusRead
			return nil
		}
	}
	return errors.NotFound("Contact message", nil)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []service.PushNotification
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, notification service.PushNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type recordingBus struct {
	mu         sync.Mutex
	events     []entity.Event
	publishErr error
}

func (b *recordingBus) Publish(ctx context.Context, event entity.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publishErr != nil {
		return b.publishErr
	}
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) Subscribe(eventType entity.EventType, handler service.EventHandler) {}
func (b *recordingBus) Start(ctx context.Context) error                                  { return nil }
func (b *recordingBus) Close() error                                                     { return nil }

type denyLimiter struct{ wait time.Duration }

func (l denyLimiter) Allow(key, action string) (bool, time.Duration) { return false, l.wait }

var (
	staff     = Actor{UserID: "staff-1", Role: entity.RoleStaff}
	alice     = Actor{UserID: "alice", Role: entity.RoleClient}
	bob       = Actor{UserID: "bob", Role: entity.RoleClient}
	aliceUser = &entity.User{ID: "alice", Email: "alice@example.com", DisplayName: "Alice", Role: entity.RoleClient, FCMToken: "tok-alice"}
	bobUser   = &entity.User{ID: "bob", Email: "bob@example.com", DisplayName: "Bob", Role: entity.RoleClient}
)
