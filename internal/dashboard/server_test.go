package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"

	"daytrack/internal/streak"
	"daytrack/internal/sync"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	config := &Config{
		Port:   0, // random available port
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}
	server := NewServer(config)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	// Give server time to start
	time.Sleep(100 * time.Millisecond)
	return server
}

func dialTestClient(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestServerStartStop(t *testing.T) {
	server := startTestServer(t)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialTestClient(t, ctx, server)
	time.Sleep(100 * time.Millisecond)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestCycleBroadcast(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestClient(t, ctx, server)
	time.Sleep(100 * time.Millisecond)

	handler := NewHandler(server, log.New(os.Stderr, "[test] ", 0))
	handler.OnCycleComplete(&sync.CycleResult{
		Pushed:   3,
		Pulled:   1,
		Duration: 250 * time.Millisecond,
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeCycleComplete {
		t.Errorf("Expected %s, got %s", MessageTypeCycleComplete, msg.Type)
	}

	var payload CycleData
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("Failed to unmarshal cycle data: %v", err)
	}
	if payload.Pushed != 3 || payload.Pulled != 1 {
		t.Errorf("Unexpected cycle data %+v", payload)
	}
}

func TestStreakBroadcast(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestClient(t, ctx, server)
	time.Sleep(100 * time.Millisecond)

	handler := NewHandler(server, log.New(os.Stderr, "[test] ", 0))
	handler.OnStreakUpdate("reading", "2025-06-10", streak.Streaks{Achiever: 4, Fighter: 1})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeStreakUpdate {
		t.Errorf("Expected %s, got %s", MessageTypeStreakUpdate, msg.Type)
	}

	var payload StreakData
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("Failed to unmarshal streak data: %v", err)
	}
	if payload.Habit != "reading" || payload.Achiever != 4 || payload.Fighter != 1 {
		t.Errorf("Unexpected streak data %+v", payload)
	}
}

func TestMultipleClients(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	numClients := 3
	conns := make([]*websocket.Conn, numClients)
	for i := 0; i < numClients; i++ {
		conns[i] = dialTestClient(t, ctx, server)
	}
	time.Sleep(100 * time.Millisecond)

	if count := server.ClientCount(); count != numClients {
		t.Errorf("Expected %d clients, got %d", numClients, count)
	}

	handler := NewHandler(server, log.New(os.Stderr, "[test] ", 0))
	handler.OnStats(StatsData{Tasks: 12, Pending: 2})

	for i, conn := range conns {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Client %d failed to read broadcast: %v", i, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Client %d failed to unmarshal message: %v", i, err)
		}
		if msg.Type != MessageTypeStats {
			t.Errorf("Client %d expected %s, got %s", i, MessageTypeStats, msg.Type)
		}
	}
}
