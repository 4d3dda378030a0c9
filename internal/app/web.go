// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_odometer/internal/config"
	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsBacklog is how many snapshots a slow websocket client may lag behind
// before updates to it are dropped.
const wsBacklog = 16

// OdometryHub keeps the latest snapshot for the HTTP API and pushes every
// update to connected websocket clients.
type OdometryHub struct {
	mu      sync.RWMutex
	last    odometry.Snapshot
	have    bool
	clients map[*wsClient]struct{}

	reset func() error
}

type wsClient struct {
	send chan odometry.Snapshot
}

// NewOdometryHub creates a hub. reset is called for POST /api/reset and
// websocket {"action":"reset"} messages.
func NewOdometryHub(reset func() error) *OdometryHub {
	return &OdometryHub{
		clients: make(map[*wsClient]struct{}),
		reset:   reset,
	}
}

// Update stores s and queues it for every websocket client.
func (h *OdometryHub) Update(s odometry.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = s
	h.have = true
	for c := range h.clients {
		select {
		case c.send <- s:
		default:
		}
	}
}

// Latest returns the last snapshot and whether one arrived yet.
func (h *OdometryHub) Latest() (odometry.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

// Clients returns the number of connected websocket clients.
func (h *OdometryHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds the hub's endpoints to mux.
func (h *OdometryHub) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/odometry", h.handleOdometry)
	mux.HandleFunc("/api/reset", h.handleReset)
	mux.HandleFunc("/ws", h.handleWS)
}

func (h *OdometryHub) handleOdometry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (h *OdometryHub) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.reset(); err != nil {
		log.Printf("web: reset error: %v", err)
		http.Error(w, "reset failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *OdometryHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{send: make(chan odometry.Snapshot, wsBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.have {
		c.send <- h.last
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range c.send {
			if err := conn.WriteJSON(s); err != nil {
				log.Printf("web: websocket write error: %v", err)
				conn.Close()
				for range c.send {
				}
				return
			}
		}
	}()

	// Message loop
	for {
		var msg struct {
			Action string `json:"action"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			break
		}

		switch msg.Action {
		case "reset":
			if err := h.reset(); err != nil {
				log.Printf("web: reset error: %v", err)
			}
		default:
			log.Printf("web: unknown websocket action %q", msg.Action)
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	<-done
}

// RunWeb serves the odometry API and the ./web page. Snapshots come from
// the odometer over MQTT; resets are forwarded on the reset topic.
func RunWeb() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	hub := NewOdometryHub(func() error {
		if token := client.Publish(cfg.TopicOdometryReset, 0, false, []byte("{}")); token.Wait() && token.Error() != nil {
			return fmt.Errorf("MQTT publish error (reset): %w", token.Error())
		}
		log.Printf("web: reset forwarded to %s", cfg.TopicOdometryReset)
		return nil
	})

	if err := subscribeSnapshots(client, cfg.TopicOdometry, "web", hub.Update); err != nil {
		return err
	}

	mux := http.NewServeMux()
	hub.Register(mux)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
