// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !integration

package main

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEcho(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestEcho_Messages(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	srv := testServer(t, s, testObservability(t, s))
	conn := dialEcho(t, srv.URL)

	tests := []struct {
		name     string
		msgType  int
		payload  string
		wantType int
		want     string
	}{
		{name: "text is prefixed", msgType: websocket.TextMessage, payload: "hello", wantType: websocket.TextMessage, want: "echo: hello"},
		{name: "empty text", msgType: websocket.TextMessage, payload: "", wantType: websocket.TextMessage, want: "echo: "},
		{name: "binary is returned as is", msgType: websocket.BinaryMessage, payload: "\x00\x01", wantType: websocket.BinaryMessage, want: "\x00\x01"},
	}

	// Subtests share one connection and run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(tt.msgType, []byte(tt.payload)))
			mt, data, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, mt)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestEcho_PingPong(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	srv := testServer(t, s, testObservability(t, s))
	conn := dialEcho(t, srv.URL)

	pong := make(chan string, 1)
	conn.SetPongHandler(func(data string) error {
		pong <- data
		return nil
	})
	require.NoError(t, conn.WriteControl(websocket.PingMessage, []byte("tick"), time.Now().Add(time.Second)))

	// Control frames are handled while reading; the echo makes the read return.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("x")))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	select {
	case got := <-pong:
		assert.Equal(t, "tick", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no pong received")
	}
}

func TestEcho_Close(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	srv := testServer(t, s, testObservability(t, s))
	conn := dialEcho(t, srv.URL)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestEcho_RequiresUpgrade(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	srv := testServer(t, s, testObservability(t, s))

	resp, _ := get(t, srv.URL+"/ws")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
