package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Wire types duplicated from the daemon so this binary stays standalone.

// envelope wraps an event for the daemon's line-delimited JSON protocol.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ipcResponse is the daemon's reply. State is only set for get_state.
type ipcResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

const dialTimeout = 2 * time.Second

// marshalEnvelope builds one request line. data may be nil.
func marshalEnvelope(typ string, data any) ([]byte, error) {
	env := envelope{Type: typ}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", typ, err)
		}
		env.Data = b
	}
	return json.Marshal(env)
}

// request sends one envelope and returns the daemon's reply. A reply with
// status "error" is returned as an error.
func request(socketPath, typ string, data any) (ipcResponse, error) {
	line, err := marshalEnvelope(typ, data)
	if err != nil {
		return ipcResponse{}, err
	}

	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return ipcResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(dialTimeout))

	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return ipcResponse{}, fmt.Errorf("send %s: %w", typ, err)
	}

	reply, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return ipcResponse{}, fmt.Errorf("read response: %w", err)
	}
	var resp ipcResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return ipcResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return resp, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return resp, nil
}
