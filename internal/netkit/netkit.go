// Package netkit backs SanScript's http_get/ws_ping native functions:
// a plain net/http client and a gorilla/websocket dialer, trimmed to
// the two one-shot operations a native function can expose as a single
// Value return.
package netkit

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const timeout = 10 * time.Second

// Get performs an HTTP GET and returns the response body as a string.
func Get(url string) (string, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "SanScript/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http_get failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// Ping dials url as a WebSocket, sends a ping frame, and reports
// whether a pong arrived before the deadline. The pong is detected via
// the handler rather than ReadMessage's return, since gorilla consumes
// control frames internally and ReadMessage only surfaces data frames.
func Ping(url string) bool {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = timeout

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return false
	}
	defer conn.Close()

	ponged := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case ponged <- struct{}{}:
		default:
		}
		return nil
	})

	if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
		return false
	}

	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-ponged:
		return true
	case <-time.After(time.Until(deadline)):
		return false
	}
}
