package websocket

import (
	"context"
	"sync"

	"zorkdi/pkg/logger"
)

// Manager tracks every live connection. A user may hold several.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then closes every
// remaining connection.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				logger.Debug("Client registered: %s (user %s)", client.ID, client.Actor.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.ID]; ok {
					delete(m.clients, client.ID)
					client.closeSend()
				}
				m.mutex.Unlock()
				logger.Debug("Client unregistered: %s (user %s)", client.ID, client.Actor.UserID)

			case <-ctx.Done():
				close(m.done)
				m.shutdown()
				return
			}
		}
	}()
}

// Add registers client. It reports false once the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) Remove(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.closeSend()
	}
}

func (m *Manager) shutdown() {
	m.mutex.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mutex.Unlock()

	for _, client := range clients {
		client.teardown()
		client.closeSend()
	}
	logger.Info("Closed %d websocket connections", len(clients))
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// CountForUser returns how many connections userID holds.
func (m *Manager) CountForUser(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, client := range m.clients {
		if client.Actor.UserID == userID {
			n++
		}
	}
	return n
}
