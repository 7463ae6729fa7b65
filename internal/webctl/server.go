package webctl

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"motionplus/internal/camthread"
)

// ActionSetter is the narrow capability webctl needs from the supervisor
// to apply pause/snapshot/event_stop toggles.
type ActionSetter interface {
	SetCameraAction(camera string, a camthread.ActionFlags)
}

// FrameSource returns the latest JPEG bytes published for a camera.
type FrameSource interface {
	LatestJPEG(camera string) ([]byte, bool)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the HTTP control/streaming surface.
type Server struct {
	auth    *Authenticator
	actions ActionSetter
	frames  FrameSource

	mu   sync.Mutex
	subs map[*websocket.Conn]string // conn -> camera name
}

// NewServer builds a webctl Server.
func NewServer(auth *Authenticator, actions ActionSetter, frames FrameSource) *Server {
	return &Server{auth: auth, actions: actions, frames: frames, subs: make(map[*websocket.Conn]string)}
}

// Mux builds the net/http handler tree.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/snapshot/", s.requireAuth(s.handleSnapshot))
	mux.HandleFunc("/action/", s.requireAuth(s.handleAction))
	mux.HandleFunc("/ws/", s.requireAuth(s.handleWebsocket))
	return mux
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	tok, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"token": tok})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		tok := strings.TrimPrefix(authz, "Bearer ")
		if tok == "" {
			tok = r.URL.Query().Get("token")
		}
		if _, err := s.auth.Verify(tok); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	camera := strings.TrimPrefix(r.URL.Path, "/snapshot/")
	img, ok := s.frames.LatestJPEG(camera)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img)
}

// handleAction applies one of the three action-flag toggles: pause,
// snapshot, event_stop.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/action/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.Error(w, "expects /action/{camera}/{pause|snapshot|event_stop}", http.StatusBadRequest)
		return
	}
	camera, action := parts[0], parts[1]

	var flags camthread.ActionFlags
	switch action {
	case "pause":
		flags.Pause = true
	case "snapshot":
		flags.Snapshot = true
	case "event_stop":
		flags.EventStop = true
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	s.actions.SetCameraAction(camera, flags)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	camera := strings.TrimPrefix(r.URL.Path, "/ws/")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.subs[conn] = camera
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastFrame pushes a freshly encoded JPEG to every websocket
// subscriber of camera.
func (s *Server) BroadcastFrame(camera string, jpeg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, cam := range s.subs {
		if cam != camera {
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, jpeg); err != nil {
			conn.Close()
			delete(s.subs, conn)
		}
	}
}
