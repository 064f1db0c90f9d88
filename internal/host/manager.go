// Package host bridges the browser rendering host and the rerun engine
// over WebSocket: events flow up, fresh documents flow down.
package host

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// ConnManager tracks the active WebSocket connection per user and tab.
type ConnManager struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewConnManager creates an empty connection manager.
func NewConnManager() *ConnManager {
	return &ConnManager{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a user and tab.
func (m *ConnManager) GetActive(userID, tabID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tabs, ok := m.active[userID]; ok {
		return tabs[tabID]
	}
	return nil
}

// Register adds a connection for a user/tab, closing any previous
// connection for the same tab.
func (m *ConnManager) Register(userID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[userID][tabID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	m.active[userID][tabID] = conn
	slog.Info("Host connection registered", "user_id", userID, "tab_id", tabID)
}

// Unregister removes a connection for a user/tab if it is still current.
func (m *ConnManager) Unregister(userID, tabID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tabs, ok := m.active[userID]; ok {
		if current, exists := tabs[tabID]; exists && current == conn {
			delete(tabs, tabID)
			if len(tabs) == 0 {
				delete(m.active, userID)
			}
			slog.Info("Host connection unregistered", "user_id", userID, "tab_id", tabID)
		}
	}
}

// Close terminates the connection for one user/tab, if any.
func (m *ConnManager) Close(userID, tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs, ok := m.active[userID]
	if !ok {
		return
	}
	conn, ok := tabs[tabID]
	if !ok {
		return
	}

	_ = conn.Close(websocket.StatusNormalClosure, "session expired")
	delete(tabs, tabID)
	if len(tabs) == 0 {
		delete(m.active, userID)
	}
	slog.Info("Host connection closed", "user_id", userID, "tab_id", tabID)
}
