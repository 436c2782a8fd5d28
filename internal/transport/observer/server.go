package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"settle.ai/internal/observerproto"
	"settle.ai/internal/sim/world"
)

// Server streams round summaries of one run to read-only websocket
// observers. It implements world.RoundObserver; ObserveRound is called on the
// simulation goroutine and never blocks on a slow client.
type Server struct {
	runID      string
	sessionBuf int
	log        *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
	boot     observerproto.BootstrapResponse
	// Latest ROUND payloads, without and with agent positions, replayed to
	// sessions that join mid-run.
	lastRound       []byte
	lastRoundAgents []byte
	lastDone        []byte
}

type session struct {
	id            string
	out           chan []byte
	includeAgents atomic.Bool
}

func NewServer(runID string, sessionBuf int, logger *log.Logger) *Server {
	if sessionBuf <= 0 {
		sessionBuf = 64
	}
	return &Server{
		runID:      runID,
		sessionBuf: sessionBuf,
		log:        logger,
		sessions:   map[string]*session{},
		boot: observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			RunID:           runID,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see isLoopbackRemote
		},
	}
}

// Register mounts the observer endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
}

// Sessions reports the number of connected observers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) ObserveRound(worldID string, rep world.RoundReport, positions []world.Vec2i) {
	msg := observerproto.RoundMsg{
		Type:            observerproto.TypeRound,
		ProtocolVersion: observerproto.Version,
		WorldID:         worldID,
		RunID:           s.runID,
		Round:           rep.Round + 1,
		Proposed:        rep.Proposed,
		Moved:           rep.Moved,
		Cancelled:       rep.Cancelled,
		Digest:          rep.Digest,
	}
	if b, ok := world.BoundingBox(positions); ok {
		msg.Bounds = &observerproto.Bounds{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY}
	}
	plain, err := json.Marshal(msg)
	if err != nil {
		return
	}
	msg.Agents = make([][2]int, len(positions))
	for i, p := range positions {
		msg.Agents[i] = p.ToArray()
	}
	withAgents, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boot.WorldID = worldID
	s.boot.Rounds = rep.Round + 1
	s.boot.Agents = len(positions)
	s.lastRound = plain
	s.lastRoundAgents = withAgents
	for _, sess := range s.sessions {
		if sess.includeAgents.Load() {
			sendLatest(sess.out, withAgents)
		} else {
			sendLatest(sess.out, plain)
		}
	}
}

// Finish broadcasts the end-of-run message.
func (s *Server) Finish(rep world.RunReport) {
	msg := observerproto.DoneMsg{
		Type:            observerproto.TypeDone,
		ProtocolVersion: observerproto.Version,
		RunID:           s.runID,
		Stable:          rep.Stable,
		FixedPointRound: rep.FixedPointRound,
		EmptyTiles:      rep.EmptyTiles,
		Error:           rep.Error,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boot.Done = true
	s.lastDone = b
	for _, sess := range s.sessions {
		sendLatest(sess.out, b)
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		s.mu.Lock()
		resp := s.boot
		s.mu.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(raw)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sess := &session{
			id:  fmt.Sprintf("O%d", s.nextID.Add(1)),
			out: make(chan []byte, s.sessionBuf),
		}
		sess.includeAgents.Store(sub.IncludeAgents)
		s.join(sess)
		defer s.leave(sess.id)

		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := parseSubscribe(raw); ok {
				sess.includeAgents.Store(sub.IncludeAgents)
			}
		}

		close(done)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case err := <-writeErr:
			if err != nil && s.log != nil {
				s.log.Printf("observer %s: write: %v", sess.id, err)
			}
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// join registers sess and queues the latest state for it.
func (s *Server) join(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
	last := s.lastRound
	if sess.includeAgents.Load() {
		last = s.lastRoundAgents
	}
	if last != nil {
		sendLatest(sess.out, last)
	}
	if s.lastDone != nil {
		sendLatest(sess.out, s.lastDone)
	}
	if s.log != nil {
		s.log.Printf("observer %s joined (%d connected)", sess.id, len(s.sessions))
	}
}

func (s *Server) leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func parseSubscribe(raw []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, false
	}
	if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	return sub, true
}

// sendLatest never blocks: when ch is full the oldest message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
