package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"runtime"
	"strings"
	"testing"
	"time"

	"gantry/internal/protocol"
	"gantry/internal/server"
)

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, req protocol.Request) protocol.Response {
	if req.Command == protocol.CmdPing {
		return protocol.OK("pong")
	}
	return protocol.Errorf("unknown command %q", req.Command)
}

func startServer(t *testing.T) (*server.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := server.NewServer(ctx, "127.0.0.1:0", echoHandler{}, nil)
	if err != nil {
		cancel()
		t.Fatalf("NewServer failed: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, cancel
}

func sendLine(t *testing.T, conn net.Conn, reader *bufio.Reader, line string) protocol.Response {
	t.Helper()
	if err := conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		t.Fatalf("write request: %v", err)
	}
	raw, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response %q: %v", raw, err)
	}
	return resp
}

func TestServerAnswersOneResponsePerLine(t *testing.T) {
	srv, _ := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for i := 0; i < 3; i++ {
		resp := sendLine(t, conn, reader, `{"command":"ping"}`)
		if !resp.Success || resp.Message != "pong" {
			t.Fatalf("request %d: unexpected response %+v", i, resp)
		}
	}
}

func TestServerKeepsConnectionAfterMalformedInput(t *testing.T) {
	srv, _ := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	resp := sendLine(t, conn, reader, `{not json`)
	if resp.Success {
		t.Fatalf("expected failure for malformed input, got %+v", resp)
	}

	// The connection stays usable.
	resp = sendLine(t, conn, reader, `{"command":"ping"}`)
	if !resp.Success {
		t.Fatalf("connection unusable after malformed input: %+v", resp)
	}
}

func TestServerReportsUnknownCommand(t *testing.T) {
	srv, _ := startServer(t)

	client, err := protocol.Dial(srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Do(protocol.Request{Command: "dance"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected failure for unknown command, got %+v", resp)
	}
}

func TestServerRespondsToOversizeLine(t *testing.T) {
	srv, _ := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	// One line well past the per-line limit, no newline needed for the
	// server to give up on it.
	if _, err := conn.Write([]byte(strings.Repeat("a", (1<<20)+64))); err != nil {
		t.Fatalf("write oversize line: %v", err)
	}

	raw, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response %q: %v", raw, err)
	}
	if resp.Success || !strings.Contains(resp.Message, "exceeds") {
		t.Fatalf("expected line-too-long failure, got %+v", resp)
	}
}

func TestClosedConnectionsReleaseGoroutines(t *testing.T) {
	srv, _ := startServer(t)

	// Warm up so lazily started runtime goroutines don't skew the baseline.
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", srv.Addr())
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		reader := bufio.NewReader(conn)
		sendLine(t, conn, reader, `{"command":"ping"}`)
		conn.Close()
	}
	waitForGoroutineFloor(t, runtime.NumGoroutine())

	before := runtime.NumGoroutine()
	const connections = 50
	for i := 0; i < connections; i++ {
		conn, err := net.Dial("tcp", srv.Addr())
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		reader := bufio.NewReader(conn)
		resp := sendLine(t, conn, reader, `{"command":"ping"}`)
		if !resp.Success {
			t.Fatalf("connection %d: unexpected response %+v", i, resp)
		}
		conn.Close()
	}

	after := waitForGoroutineFloor(t, before)
	if after > before+5 {
		t.Fatalf("goroutines grew from %d to %d after %d closed connections", before, after, connections)
	}
}

// waitForGoroutineFloor polls until the goroutine count settles at or near
// the target, returning the final count.
func waitForGoroutineFloor(t *testing.T, target int) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	count := runtime.NumGoroutine()
	for time.Now().Before(deadline) {
		count = runtime.NumGoroutine()
		if count <= target+5 {
			return count
		}
		time.Sleep(20 * time.Millisecond)
	}
	return count
}

func TestServerShutdownClosesConnections(t *testing.T) {
	srv, cancel := startServer(t)

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cancel()
	srv.Close()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("expected closed connection after shutdown")
	}
}
