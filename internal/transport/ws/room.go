package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quizlive/internal/domain"
	"quizlive/internal/game"
	"quizlive/internal/protocol"
)

const textMessage = websocket.TextMessage

// client is one websocket peer attached to a room. Outbound frames go
// through a buffered send channel drained by writePump; a peer that cannot
// keep up is dropped rather than blocking the room loop.
type client struct {
	conn     wsConn
	send     chan []byte
	playerID string
	nickname string
	isHost   bool
	joined   bool
}

type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

type frame struct {
	from *client
	data []byte
}

// room owns one live game: the host connection, the player connections,
// and the session. A single run loop consumes every event (register,
// disconnect, inbound frame, timer expiry), so all state transitions are
// serialized; the race between a timer expiry and a late answer resolves
// in arrival order here.
type room struct {
	pin     string
	session *game.Session

	register   chan *client
	unregister chan *client
	frames     chan frame
	timerC     chan int
	done       chan struct{}

	host    *client
	players map[*client]bool

	timer     *time.Timer
	roundOpen bool

	once    sync.Once
	onClose func(pin string)
}

func newRoom(pin string, quiz domain.Quiz) *room {
	return &room{
		pin:        pin,
		session:    game.NewSession(quiz),
		register:   make(chan *client),
		unregister: make(chan *client),
		frames:     make(chan frame, 16),
		timerC:     make(chan int, 1),
		done:       make(chan struct{}),
		players:    make(map[*client]bool),
	}
}

func (r *room) run() {
	defer r.shutdown()

	for {
		select {
		case c := <-r.register:
			r.handleRegister(c)

		case c := <-r.unregister:
			r.handleUnregister(c)
			if r.host == nil {
				return
			}

		case f := <-r.frames:
			r.handleFrame(f)

		case idx := <-r.timerC:
			// A stale expiry from an already-advanced round is ignored.
			if r.roundOpen && idx == r.session.Snapshot().CurrentQuestionIndex {
				r.endQuestion()
			}

		case <-r.done:
			return
		}
	}
}

func (r *room) handleRegister(c *client) {
	if c.isHost {
		if r.host != nil {
			r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: "room already has a host"})
			close(c.send)
			return
		}
		r.host = c
		return
	}
	r.players[c] = true
}

func (r *room) handleUnregister(c *client) {
	if c == r.host {
		// Without a host the game cannot continue; drop everyone.
		close(c.send)
		r.host = nil
		return
	}
	if _, ok := r.players[c]; !ok {
		return
	}
	delete(r.players, c)
	close(c.send)

	if !c.joined {
		return
	}
	r.session.RemovePlayer(c.playerID)
	r.sendTo(r.host, protocol.KindPlayerLeft, protocol.PlayerLeftPayload{PlayerID: c.playerID})

	// Losing a player can complete the round for everyone else.
	if r.roundOpen && r.session.AllPlayersAnswered() {
		r.endQuestion()
	}
}

func (r *room) handleFrame(f frame) {
	msg, err := protocol.DecodeClient(f.data)
	if err != nil {
		log.Printf("room %s: dropping frame: %v", r.pin, err)
		r.sendTo(f.from, protocol.KindError, protocol.ErrorPayload{Message: err.Error()})
		return
	}

	switch m := msg.(type) {
	case protocol.Join:
		r.handleJoin(f.from, m)
	case protocol.Answer:
		r.handleAnswer(f.from, m)
	case protocol.StartGame:
		r.handleStartGame(f.from)
	case protocol.NextQuestion:
		r.handleNextQuestion(f.from)
	}
}

func (r *room) handleJoin(c *client, m protocol.Join) {
	if c.isHost {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: "host cannot join as player"})
		return
	}
	if err := r.session.AddPlayer(c.playerID, m.Nickname); err != nil {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: err.Error()})
		return
	}
	c.joined = true
	c.nickname = m.Nickname
	r.sendTo(c, protocol.KindPlayerJoined, protocol.PlayerJoinedPayload{PlayerID: c.playerID, Nickname: m.Nickname})
	r.sendTo(r.host, protocol.KindPlayerJoined, protocol.PlayerJoinedPayload{PlayerID: c.playerID, Nickname: m.Nickname})
}

func (r *room) handleAnswer(c *client, m protocol.Answer) {
	if c.isHost {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: "host cannot answer"})
		return
	}
	record, err := r.session.SubmitAnswer(c.playerID, m.AnswerIndex)
	if err != nil {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: err.Error()})
		return
	}

	total := 0
	if entry, ok := r.session.PlayerRank(c.playerID); ok {
		total = entry.Score
	}
	r.sendTo(c, protocol.KindAnswerResult, protocol.AnswerResultPayload{
		IsCorrect:  record.IsCorrect,
		Points:     record.Points,
		TotalScore: total,
	})
	r.sendStats()

	if r.roundOpen && r.session.AllPlayersAnswered() {
		r.endQuestion()
	}
}

func (r *room) handleStartGame(c *client) {
	if c != r.host {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: "only the host can start the game"})
		return
	}
	if err := r.session.StartGame(); err != nil {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: err.Error()})
		return
	}
	r.broadcast(protocol.KindGameStart, struct{}{})
	r.startQuestion()
}

// handleNextQuestion advances the host's pacing one step: an open round is
// closed first (reveal); a closed round moves on to the leaderboard and the
// next question, or to the podium after the last one.
func (r *room) handleNextQuestion(c *client) {
	if c != r.host {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: "only the host can advance the game"})
		return
	}
	if r.session.State() != domain.StatePlaying {
		r.sendTo(c, protocol.KindError, protocol.ErrorPayload{Message: domain.ErrQuestionNotActive.Error()})
		return
	}

	if r.roundOpen {
		r.endQuestion()
		return
	}

	r.broadcast(protocol.KindLeaderboard, protocol.LeaderboardPayload{Entries: r.session.Leaderboard()})
	if r.session.NextQuestion() {
		r.startQuestion()
		return
	}
	r.broadcast(protocol.KindGameEnd, protocol.GameEndPayload{Podium: r.session.Podium()})
}

func (r *room) startQuestion() {
	prompt, err := r.session.StartQuestion()
	if err != nil {
		r.sendTo(r.host, protocol.KindError, protocol.ErrorPayload{Message: err.Error()})
		return
	}
	r.roundOpen = true

	answers := make([]protocol.AnswerOptionPayload, len(prompt.Answers))
	for i, a := range prompt.Answers {
		answers[i] = protocol.AnswerOptionPayload{Index: a.Index, Text: a.Text}
	}
	r.broadcast(protocol.KindQuestion, protocol.QuestionPayload{
		QuestionIndex:  prompt.QuestionIndex,
		TotalQuestions: prompt.TotalQuestions,
		Text:           prompt.Text,
		Answers:        answers,
		TimeLimit:      prompt.TimeLimit,
		Reference:      prompt.Reference,
	})

	idx := prompt.QuestionIndex
	r.timer = time.AfterFunc(time.Duration(prompt.TimeLimit)*time.Second, func() {
		select {
		case r.timerC <- idx:
		case <-r.done:
		}
	})
}

func (r *room) endQuestion() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.roundOpen = false

	correct, err := r.session.EndQuestion()
	if err != nil {
		return
	}
	r.broadcast(protocol.KindQuestionEnd, protocol.QuestionEndPayload{CorrectAnswerIndex: correct})
	r.sendStats()
}

func (r *room) sendStats() {
	stats, err := r.session.QuestionStats()
	if err != nil {
		return
	}
	r.sendTo(r.host, protocol.KindQuestionStats, stats)
}

// broadcast fans a frame out to the host and every player. Delivery is
// best effort per peer: a full send buffer drops that peer and the rest
// still receive the frame.
func (r *room) broadcast(kind string, payload any) {
	data, err := protocol.Marshal(kind, payload)
	if err != nil {
		log.Printf("room %s: marshal %s: %v", r.pin, kind, err)
		return
	}
	if r.host != nil {
		r.push(r.host, data, kind)
	}
	for c := range r.players {
		r.push(c, data, kind)
	}
}

func (r *room) sendTo(c *client, kind string, payload any) {
	if c == nil {
		return
	}
	data, err := protocol.Marshal(kind, payload)
	if err != nil {
		log.Printf("room %s: marshal %s: %v", r.pin, kind, err)
		return
	}
	r.push(c, data, kind)
}

func (r *room) push(c *client, data []byte, kind string) {
	select {
	case c.send <- data:
	default:
		log.Printf("room %s: peer %s too slow, dropping (last frame %s)", r.pin, c.playerID, kind)
		if c == r.host {
			close(c.send)
			r.host = nil
			return
		}
		delete(r.players, c)
		close(c.send)
		if c.joined {
			r.session.RemovePlayer(c.playerID)
		}
	}
}

// stop requests the run loop to exit; safe to call more than once.
func (r *room) stop() {
	r.once.Do(func() { close(r.done) })
}

func (r *room) shutdown() {
	r.stop()
	if r.timer != nil {
		r.timer.Stop()
	}
	for c := range r.players {
		close(c.send)
	}
	if r.host != nil {
		close(r.host.send)
	}
	if r.onClose != nil {
		r.onClose(r.pin)
	}
	log.Printf("room %s closed", r.pin)
}

// readPump feeds inbound frames into the room loop until the connection
// drops, then unregisters the peer.
func (c *client) readPump(r *room) {
	defer func() {
		select {
		case r.unregister <- c:
		case <-r.done:
		}
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case r.frames <- frame{from: c, data: data}:
		case <-r.done:
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(textMessage, data); err != nil {
			return
		}
	}
}
