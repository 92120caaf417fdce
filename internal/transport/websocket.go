// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"fftplot/internal/display"
	"fftplot/internal/log"
	"fftplot/internal/spectrum"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where clients connect.
const WebSocketPath = "/ws"

const (
	broadcastQueue = 16
	writeTimeout   = time.Second
)

// CurveMessage is the JSON document broadcast for each frame.
type CurveMessage struct {
	Type       string          `json:"type"`
	Sequence   uint64          `json:"seq"`
	SampleRate float64         `json:"sample_rate"`
	FFTSize    int             `json:"fft_size"`
	PeakHz     float64         `json:"peak_hz"`
	Curve      []display.Point `json:"curve"`
	Hold       []display.Point `json:"hold,omitempty"`
	Bands      []display.Band  `json:"bands"`
}

// WebSocketSink broadcasts display curves to every connected client.
//
// Thread Safety:
//   - Send only queues; a single goroutine writes to clients
//   - A full queue drops the message, so a slow client never stalls the loop
//   - The client set is guarded by a mutex
type WebSocketSink struct {
	addr        string
	axis        display.Axis
	withHold    bool
	minInterval time.Duration
	lastSend    time.Time

	upgrader  websocket.Upgrader
	server    *http.Server
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex

	broadcast chan *CurveMessage
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWebSocketSink prepares a sink for addr (host:port). Curves are computed
// on axis; messages closer together than minInterval are skipped. The HTTP
// server is not started until Start.
func NewWebSocketSink(addr string, axis display.Axis, withHold bool, minInterval time.Duration) *WebSocketSink {
	s := &WebSocketSink{
		addr:        addr,
		axis:        axis,
		withHold:    withHold,
		minInterval: minInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // local visualisers are served from anywhere
			},
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan *CurveMessage, broadcastQueue),
		done:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.handleBroadcasts()
	return s
}

// Handler returns the HTTP handler serving WebSocketPath.
func (s *WebSocketSink) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	return mux
}

// Start serves Handler on the configured address in the background.
func (s *WebSocketSink) Start() {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("WebSocketSink: Listening on ws://%s%s", s.addr, WebSocketPath)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WebSocketSink: Server error: %v", err)
		}
	}()
}

func (s *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocketSink: Upgrade error: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()
	log.Infof("WebSocketSink: Client connected, total: %d", total)

	// Clients only listen; reading detects the disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *WebSocketSink) drop(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	total := len(s.clients)
	s.clientsMu.Unlock()

	if ok {
		conn.Close()
		log.Infof("WebSocketSink: Client disconnected, total: %d", total)
	}
}

func (s *WebSocketSink) handleBroadcasts() {
	defer s.wg.Done()
	for {
		select {
		case msg := <-s.broadcast:
			s.clientsMu.Lock()
			for conn := range s.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					log.Warnf("WebSocketSink: Error sending to client: %v", err)
					conn.Close()
					delete(s.clients, conn)
				}
			}
			s.clientsMu.Unlock()
		case <-s.done:
			return
		}
	}
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Message builds the message broadcast for f.
func (s *WebSocketSink) Message(f *spectrum.Frame) *CurveMessage {
	msg := &CurveMessage{
		Type:       "spectrum",
		Sequence:   f.Sequence,
		SampleRate: f.SampleRate,
		FFTSize:    f.FFTSize,
		Curve:      make([]display.Point, 0, s.axis.Points),
		Bands:      s.axis.Bands(f),
	}
	if _, hz, _, ok := display.Peak(f, s.axis.MinFrequency); ok {
		msg.PeakHz = hz
	}
	for p := range s.axis.Curve(f) {
		msg.Curve = append(msg.Curve, p)
	}
	if s.withHold {
		for p := range s.axis.HoldCurve(f) {
			msg.Hold = append(msg.Hold, p)
		}
	}
	return msg
}

// Send queues the curve for f. Nothing is built while no client is connected.
func (s *WebSocketSink) Send(f *spectrum.Frame) error {
	select {
	case <-s.done:
		return errors.New("websocket sink is closed")
	default:
	}

	now := time.Now()
	if now.Sub(s.lastSend) < s.minInterval || s.Clients() == 0 {
		return nil
	}
	s.lastSend = now

	select {
	case s.broadcast <- s.Message(f):
	default:
		log.Debug("WebSocketSink: Queue full, dropping frame")
	}
	return nil
}

// Close disconnects all clients and stops the server. It is idempotent.
func (s *WebSocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		log.Info("WebSocketSink: Closing")
		close(s.done)
		s.wg.Wait()

		s.clientsMu.Lock()
		for conn := range s.clients {
			conn.Close()
		}
		clear(s.clients)
		s.clientsMu.Unlock()

		if s.server != nil {
			err = s.server.Close()
		}
	})
	return err
}

var _ Sink = (*WebSocketSink)(nil)
