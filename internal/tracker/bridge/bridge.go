// Package bridge is the host adapter for the browser tracker. A companion
// extension connects over a loopback WebSocket and forwards tab lifecycle
// signals; tab queries travel the other way as request/response frames.
// This is the only package that knows the wire shape of host signals.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/typetrace/typetrace/internal/tracker"
)

// ErrNotConnected reports that no extension is currently connected, so a tab
// query cannot be answered.
var ErrNotConnected = errors.New("extension not connected")

// frame is one message exchanged with the extension. Signal frames carry
// Kind; query frames and their responses carry ID.
type frame struct {
	Kind      string    `json:"kind,omitempty"`
	Signature string    `json:"signature,omitempty"`
	ID        int64     `json:"id,omitempty"`
	Method    string    `json:"method,omitempty"`
	TabID     *int      `json:"tabId,omitempty"`
	WindowID  *int      `json:"windowId,omitempty"`
	Change    *change   `json:"changeInfo,omitempty"`
	Tab       *tabFrame `json:"tab,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type change struct {
	URL string `json:"url,omitempty"`
}

type tabFrame struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Server accepts the extension connection and implements tracker.EventSource.
// One extension is served at a time; a new connection replaces the old one.
type Server struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	events chan tracker.Event

	mu   sync.Mutex // guards conn writes and replacement
	conn *websocket.Conn

	pending sync.Map // query id -> chan frame
	nextID  atomic.Int64

	helloOnce sync.Once
	helloCh   chan string
}

// NewServer builds a bridge server. Mount its Handler on a loopback HTTP
// server and run the controller against Events().
func NewServer(log *slog.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			// The extension connects from an extension origin, not our host.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log,
		events:  make(chan tracker.Event, 256),
		helloCh: make(chan string, 1),
	}
}

// Events implements tracker.EventSource.
func (s *Server) Events() <-chan tracker.Event {
	return s.events
}

// Signature waits for the first connected extension to introduce itself and
// returns its user-agent signature. Only the first hello counts; reconnects
// cannot change the identity for the process lifetime.
func (s *Server) Signature(ctx context.Context) (string, error) {
	select {
	case sig := <-s.helloCh:
		return sig, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Handler returns the WebSocket endpoint the extension dials.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("bridge upgrade failed", "error", err)
			return
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		s.log.Info("extension connected", "remote", r.RemoteAddr)
		go s.readLoop(conn)
	})
}

// Close drops the current extension connection, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("extension connection lost", "error", err)
			} else {
				s.log.Debug("extension disconnected")
			}
			return
		}

		if f.ID != 0 {
			s.deliverResponse(f)
			continue
		}
		s.dispatchSignal(f)
	}
}

func (s *Server) deliverResponse(f frame) {
	ch, ok := s.pending.Load(f.ID)
	if !ok {
		// Query already timed out.
		s.log.Debug("dropping late query response", "id", f.ID)
		return
	}
	select {
	case ch.(chan frame) <- f:
	default:
	}
}

func (s *Server) dispatchSignal(f frame) {
	switch f.Kind {
	case "hello":
		s.helloOnce.Do(func() { s.helloCh <- f.Signature })
		return
	case "activated":
		if f.TabID == nil {
			return
		}
		s.emit(tracker.Event{Kind: tracker.EventActivated, TabID: tracker.TabID(*f.TabID)})
	case "updated":
		if f.TabID == nil || f.Tab == nil {
			return
		}
		ev := tracker.Event{
			Kind:  tracker.EventUpdated,
			TabID: tracker.TabID(*f.TabID),
			Tab: tracker.TabInfo{
				ID:    tracker.TabID(f.Tab.ID),
				URL:   f.Tab.URL,
				Title: f.Tab.Title,
			},
		}
		if f.Change != nil {
			ev.Change = tracker.ChangeInfo{URL: f.Change.URL}
		}
		s.emit(ev)
	case "focusChanged":
		windowID := tracker.WindowNone
		if f.WindowID != nil {
			windowID = *f.WindowID
		}
		s.emit(tracker.Event{Kind: tracker.EventFocusChanged, WindowID: windowID})
	case "startup":
		s.emit(tracker.Event{Kind: tracker.EventStartup})
	case "installed":
		s.emit(tracker.Event{Kind: tracker.EventInstalled})
	default:
		s.log.Debug("unknown signal from extension", "kind", f.Kind)
	}
}

func (s *Server) emit(ev tracker.Event) {
	select {
	case s.events <- ev:
	default:
		// The controller has fallen far behind; shedding is better than
		// blocking the read loop and stalling query responses.
		s.log.Warn("event buffer full, dropping signal", "kind", int(ev.Kind))
	}
}

// Tab implements tracker.TabSource by asking the extension for the tab.
func (s *Server) Tab(ctx context.Context, id tracker.TabID) (tracker.TabInfo, error) {
	tabID := int(id)
	resp, err := s.query(ctx, frame{Method: "getTab", TabID: &tabID})
	if err != nil {
		return tracker.TabInfo{}, err
	}
	if resp.Error != "" {
		return tracker.TabInfo{}, fmt.Errorf("tab %d: %s", tabID, resp.Error)
	}
	if resp.Tab == nil {
		return tracker.TabInfo{}, fmt.Errorf("tab %d: empty response", tabID)
	}
	return tracker.TabInfo{
		ID:    tracker.TabID(resp.Tab.ID),
		URL:   resp.Tab.URL,
		Title: resp.Tab.Title,
	}, nil
}

// ActiveTab implements tracker.TabSource. An empty response means no window
// has an active tab.
func (s *Server) ActiveTab(ctx context.Context) (tracker.TabInfo, error) {
	resp, err := s.query(ctx, frame{Method: "getActiveTab"})
	if err != nil {
		return tracker.TabInfo{}, err
	}
	if resp.Error != "" {
		return tracker.TabInfo{}, errors.New(resp.Error)
	}
	if resp.Tab == nil {
		return tracker.TabInfo{}, tracker.ErrNoActiveTab
	}
	return tracker.TabInfo{
		ID:    tracker.TabID(resp.Tab.ID),
		URL:   resp.Tab.URL,
		Title: resp.Tab.Title,
	}, nil
}

// query sends one request frame and waits for its response or ctx expiry.
func (s *Server) query(ctx context.Context, f frame) (frame, error) {
	f.ID = s.nextID.Add(1)
	ch := make(chan frame, 1)
	s.pending.Store(f.ID, ch)
	defer s.pending.Delete(f.ID)

	s.mu.Lock()
	conn := s.conn
	var err error
	if conn == nil {
		err = ErrNotConnected
	} else {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		err = conn.WriteJSON(f)
	}
	s.mu.Unlock()
	if err != nil {
		return frame{}, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}
