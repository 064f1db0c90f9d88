package host

import (
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestConnManager_Register(t *testing.T) {
	m := NewConnManager()
	conn := &websocket.Conn{}

	m.Register("anon_1", "tab-1", conn)

	if active := m.GetActive("anon_1", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestConnManager_Unregister(t *testing.T) {
	m := NewConnManager()
	conn := &websocket.Conn{}

	m.Register("anon_1", "tab-1", conn)
	m.Unregister("anon_1", "tab-1", conn)

	if active := m.GetActive("anon_1", "tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
}

func TestConnManager_UnregisterStaleKeepsOtherTabs(t *testing.T) {
	m := NewConnManager()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	m.Register("anon_1", "tab-1", conn1)
	m.Register("anon_1", "tab-2", conn2)

	m.Unregister("anon_1", "tab-1", conn1)

	if active := m.GetActive("anon_1", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestConnManager_UnregisterIgnoresReplacedConn(t *testing.T) {
	m := NewConnManager()
	current := &websocket.Conn{}
	stale := &websocket.Conn{}

	m.Register("anon_1", "tab-1", current)

	// A late unregister from a connection that was already replaced
	// must not drop the current one.
	m.Unregister("anon_1", "tab-1", stale)

	if active := m.GetActive("anon_1", "tab-1"); active != current {
		t.Errorf("Expected current connection to survive, got %v", active)
	}
}

func TestConnManager_ConcurrentAccess(t *testing.T) {
	m := NewConnManager()

	go func() {
		for i := 0; i < 1000; i++ {
			m.Register("anon_1", "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()

	go func() {
		for i := 0; i < 1000; i++ {
			m.GetActive("anon_1", "tab-"+strconv.Itoa(i))
		}
	}()

	time.Sleep(100 * time.Millisecond)
}
