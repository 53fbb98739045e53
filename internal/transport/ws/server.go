package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"quizlive/internal/domain"
	"quizlive/internal/protocol"
)

// QuizRepository loads quiz content supplied by the editor collaborator
// (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Server exposes the host and player endpoints over HTTP and websockets.
type Server struct {
	quizzes  QuizRepository
	rooms    *Manager
	baseURL  string
	upgrader websocket.Upgrader
}

func NewServer(quizzes QuizRepository, rooms *Manager, baseURL string) *Server {
	return &Server{
		quizzes: quizzes,
		rooms:   rooms,
		baseURL: baseURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the router: a health check, the host websocket, and the
// per-PIN player page, QR code, and websocket.
func (s *Server) Routes() *httprouter.Router {
	mux := httprouter.New()
	mux.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Write([]byte("ok"))
	})
	mux.GET("/host/ws", s.serveHostWS)
	mux.GET("/play/:pin", s.serveJoinPage)
	mux.GET("/play/:pin/qr.png", s.serveJoinQR)
	mux.GET("/play/:pin/ws", s.servePlayerWS)
	return mux
}

// serveHostWS creates a game room for the requested quiz and attaches the
// caller as its host. The first frame the host receives carries the PIN
// players use to rendezvous.
func (s *Server) serveHostWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	quiz, err := s.quizzes.GetQuiz(r.Context(), quizID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("host ws upgrade failed: %v", err)
		return
	}

	room := s.rooms.Create(r.Context(), quiz)
	host := &client{
		conn:     conn,
		send:     make(chan []byte, 16),
		playerID: "host-" + room.pin,
		isHost:   true,
	}

	created, err := protocol.Marshal(protocol.KindGameCreated, protocol.GameCreatedPayload{
		PIN:     room.pin,
		JoinURL: s.joinURL(room.pin),
	})
	if err != nil {
		conn.Close()
		room.stop()
		return
	}
	host.send <- created

	log.Printf("room %s opened for quiz %q", room.pin, quiz.Title)
	room.register <- host
	go host.writePump()
	host.readPump(room)
}

func (s *Server) servePlayerWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	if !validPIN(pin) {
		http.Error(w, "invalid game pin", http.StatusBadRequest)
		return
	}
	room, ok := s.rooms.Get(pin)
	if !ok {
		http.Error(w, domain.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("player ws upgrade failed: %v", err)
		return
	}

	player := &client{
		conn:     conn,
		send:     make(chan []byte, 16),
		playerID: newPlayerID(),
	}

	select {
	case room.register <- player:
	case <-room.done:
		conn.Close()
		return
	}
	go player.writePump()
	player.readPump(room)
}

func (s *Server) serveJoinPage(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	if _, ok := s.rooms.Get(pin); !ok {
		http.Error(w, domain.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, joinPageHTML, pin, pin, pin)
}

func (s *Server) serveJoinQR(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	pin := ps.ByName("pin")
	if _, ok := s.rooms.Get(pin); !ok {
		http.Error(w, domain.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(s.joinURL(pin), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) joinURL(pin string) string {
	return s.baseURL + "/play/" + pin
}

func newPlayerID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "player-" + hex.EncodeToString(buf)
}

const joinPageHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Join game %s</title></head>
<body>
<h1>Game PIN: %s</h1>
<p>Scan to join from your phone, or connect a client to this PIN.</p>
<img src="%s/qr.png" alt="join QR code" width="256" height="256">
</body>
</html>
`
