package protocol_test

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"gantry/internal/protocol"
)

// startFakeDaemon answers every request line with a canned response and
// records the decoded requests.
func startFakeDaemon(t *testing.T, respond func(protocol.Request) protocol.Response) (string, chan protocol.Request) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	seen := make(chan protocol.Request, 16)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				scanner := bufio.NewScanner(c)
				for scanner.Scan() {
					var req protocol.Request
					if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
						return
					}
					seen <- req
					data, _ := json.Marshal(respond(req))
					if _, err := c.Write(append(data, '\n')); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return listener.Addr().String(), seen
}

func TestClientRoundTrip(t *testing.T) {
	addr, seen := startFakeDaemon(t, func(req protocol.Request) protocol.Response {
		return protocol.OK("pong")
	})

	client, err := protocol.Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if !resp.Success || resp.Message != "pong" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	req := <-seen
	if req.Command != protocol.CmdPing {
		t.Fatalf("daemon saw command %q", req.Command)
	}
}

func TestClientHelpersEncodeFields(t *testing.T) {
	addr, seen := startFakeDaemon(t, func(protocol.Request) protocol.Response {
		return protocol.OK("ok")
	})

	client, err := protocol.Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	if _, err := client.Move("base", "inc", 250); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	req := <-seen
	if req.Command != protocol.CmdMove || req.Motor != "base" || req.Direction != "inc" || req.Speed != 250 {
		t.Fatalf("unexpected move request: %+v", req)
	}

	sources := []protocol.VideoSource{{Source: "http://cam", Method: "stream", CameraID: 2}}
	if _, err := client.StartLogging("pick", "red block", 30, sources); err != nil {
		t.Fatalf("StartLogging failed: %v", err)
	}
	req = <-seen
	if req.ActionName != "pick" || req.Timeout != 30 || len(req.VideoSources) != 1 {
		t.Fatalf("unexpected start_logging request: %+v", req)
	}
	if req.VideoSources[0].CameraID != 2 {
		t.Fatalf("camera override lost: %+v", req.VideoSources)
	}

	if _, err := client.ListEpisodes(5); err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	req = <-seen
	if req.Command != protocol.CmdListEpisodes || req.Limit != 5 {
		t.Fatalf("unexpected list request: %+v", req)
	}
}

func TestDialFailsFast(t *testing.T) {
	// A listener that is immediately closed leaves a refused port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	if _, err := protocol.Dial(addr); err == nil {
		t.Fatal("expected connection failure")
	}
}
