package backend

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
)

// startMockChannel listens on loopback, accepts one connection, records
// inbound join messages and streams the given envelopes.
func startMockChannel(t *testing.T, events []Envelope) (string, <-chan ClientMessage, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	joins := make(chan ClientMessage, 8)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Read one client message (the join), then stream events.
		sc := bufio.NewScanner(conn)
		if sc.Scan() {
			var msg ClientMessage
			if json.Unmarshal(sc.Bytes(), &msg) == nil {
				joins <- msg
			}
		}

		for _, ev := range events {
			data, _ := json.Marshal(ev)
			conn.Write(append(data, '\n'))
		}
	}()

	return ln.Addr().String(), joins, func() { ln.Close() }
}

func envelope(t *testing.T, event string, payload any) Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Envelope{Event: event, Data: data}
}

func TestClientJoinAndReadEvents(t *testing.T) {
	events := []Envelope{
		envelope(t, EventSessionJoined, map[string]string{"session_id": "s1"}),
		envelope(t, EventScrapingProgress, ProgressEvent{
			SessionID: "s1",
			Type:      StageDomainStarted,
			Domain:    "ai",
		}),
	}

	addr, joins, cleanup := startMockChannel(t, events)
	defer cleanup()

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.JoinScrapingSession("s1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != EventSessionJoined {
		t.Errorf("event1 = %q, want session_joined", ev1.Event)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != EventScrapingProgress {
		t.Errorf("event2 = %q, want scraping_progress", ev2.Event)
	}
	prog, err := ev2.Progress()
	if err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if prog.Type != StageDomainStarted || prog.Domain != "ai" {
		t.Errorf("progress = %+v", prog)
	}

	join := <-joins
	if join.Event != EventJoinScrapingSession || join.SessionID != "s1" {
		t.Errorf("join message = %+v", join)
	}
}

func TestClientReadAfterServerClose(t *testing.T) {
	addr, _, cleanup := startMockChannel(t, nil)
	defer cleanup()

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.JoinGenerationSession("g1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Server sends nothing and closes; the read must fail, not hang.
	if _, err := client.ReadEvent(); err == nil {
		t.Error("expected error reading from closed channel")
	}
}

func TestClientDialFailure(t *testing.T) {
	// Port 1 is essentially guaranteed closed.
	if _, err := Dial("127.0.0.1:1"); err == nil {
		t.Error("expected error dialing closed port")
	}
}
