package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/logger"
	"github.com/agrovest/agrovest-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The browser clients are served from separate origins.
		return true
	},
}

// Server upgrades HTTP connections and hands them to the hub. It runs on
// its own listener next to the Fiber app because the upgrader needs
// net/http semantics.
type Server struct {
	hub        *Hub
	jwtService *utils.JWTService
}

// NewServer creates a new WebSocket server.
func NewServer(hub *Hub, jwtService *utils.JWTService) *Server {
	return &Server{
		hub:        hub,
		jwtService: jwtService,
	}
}

// Listen serves the /ws endpoint on the given address until the process
// exits.
func (s *Server) Listen(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleConnection)

	logger.L.Info("websocket server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

// handleConnection authenticates the token query parameter and upgrades
// the connection.
func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := s.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L.Error("upgrading websocket connection", zap.Error(err))
		return
	}

	client := NewClient(userID, conn, s.hub)
	client.Start()

	payload, _ := json.Marshal(map[string]string{"user_id": userID})
	s.hub.SendToUser(userID, Event{
		Type:      EventConnected,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
