/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

const (
	wsWriteTimeout  = 5 * time.Second
	wsClientBacklog = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// traceHub fans completed traces out to connected websocket clients. A client
// that cannot keep up is dropped rather than back-pressuring capture.
type traceHub struct {
	logger logger.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan *models.Trace
}

func newTraceHub(log logger.Logger) *traceHub {
	return &traceHub{
		logger:  log,
		clients: make(map[*wsClient]struct{}),
	}
}

// broadcast is the recorder subscriber; it never blocks the request path.
func (h *traceHub) broadcast(trace *models.Trace) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- trace:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *traceHub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
}

func (h *traceHub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// handleTraceStream upgrades the connection and streams completed traces as
// JSON messages until the client disconnects.
func (a *API) handleTraceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan *models.Trace, wsClientBacklog),
	}

	a.hub.register(client)

	go a.hub.writeLoop(client)
	a.hub.readLoop(client)
}

func (h *traceHub) writeLoop(client *wsClient) {
	defer client.conn.Close()

	for trace := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

		if err := client.conn.WriteJSON(trace); err != nil {
			h.logger.Debug().Err(err).Msg("Websocket write failed")
			return
		}
	}

	_ = client.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// readLoop discards inbound messages; it exists to detect disconnects.
func (h *traceHub) readLoop(client *wsClient) {
	defer h.unregister(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
