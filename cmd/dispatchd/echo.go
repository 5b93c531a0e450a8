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

package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	echoPrefix   = "echo: "
	controlWait  = time.Second
	maxEchoBytes = 64 << 10
)

// echoController upgrades to a WebSocket and echoes every message. Text
// messages are prefixed with "echo: ".
type echoController struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func newEchoController(logger *slog.Logger) *echoController {
	return &echoController{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (e *echoController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		e.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Server read/write timeouts stay on the hijacked connection.
	_ = conn.NetConn().SetDeadline(time.Time{})
	conn.SetReadLimit(maxEchoBytes)

	remote := conn.RemoteAddr().String()
	e.logger.Debug("websocket connected", "remote", remote)

	conn.SetPingHandler(func(data string) error {
		e.logger.Debug("websocket ping", "remote", remote)
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(string) error {
		e.logger.Debug("websocket pong", "remote", remote)
		return nil
	})
	conn.SetCloseHandler(func(code int, text string) error {
		e.logger.Debug("websocket closed", "remote", remote, "code", code, "reason", text)
		msg := websocket.FormatCloseMessage(code, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWait))
		return nil
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				e.logger.Debug("websocket read failed", "remote", remote, "error", err)
			}
			return
		}
		if mt == websocket.TextMessage {
			data = append([]byte(echoPrefix), data...)
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			e.logger.Debug("websocket write failed", "remote", remote, "error", err)
			return
		}
	}
}
