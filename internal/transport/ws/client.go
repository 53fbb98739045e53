package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"quizlive/internal/domain"
	"quizlive/internal/protocol"
)

// JoinTimeout is the budget for establishing a connection. A join attempt
// that exceeds it fails with domain.ErrConnectTimeout; there is no
// automatic reconnection.
const JoinTimeout = 10 * time.Second

// Client is one side of a game websocket: a player in a room or the host
// driving it. Received frames are delivered on Events until the connection
// drops, at which point the channel closes.
type Client struct {
	conn   *websocket.Conn
	events chan protocol.Envelope
}

// JoinGame connects to a room as a player and sends the join request.
// The server answers with playerJoined, or error if the lobby is closed.
func JoinGame(ctx context.Context, serverURL, pin, nickname string) (*Client, error) {
	c, err := dial(ctx, serverURL+"/play/"+pin+"/ws")
	if err != nil {
		return nil, err
	}
	if err := c.write(protocol.KindJoin, protocol.JoinPayload{Nickname: nickname}); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// HostGame connects as the host for the given quiz. The first event is
// gameCreated with the room's PIN.
func HostGame(ctx context.Context, serverURL, quizID string) (*Client, error) {
	return dial(ctx, serverURL+"/host/ws?quizId="+quizID)
}

func dial(ctx context.Context, wsURL string) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, JoinTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: JoinTimeout}
	conn, _, err := dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrConnectTimeout
		}
		return nil, err
	}

	c := &Client{
		conn:   conn,
		events: make(chan protocol.Envelope, 16),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the stream of frames from the server.
func (c *Client) Events() <-chan protocol.Envelope {
	return c.events
}

// SubmitAnswer sends one answer for the current question.
func (c *Client) SubmitAnswer(answerIndex int) error {
	return c.write(protocol.KindAnswer, protocol.AnswerPayload{AnswerIndex: &answerIndex})
}

// StartGame is the host control to leave the lobby.
func (c *Client) StartGame() error {
	return c.write(protocol.KindStartGame, nil)
}

// NextQuestion is the host control to advance: reveal first, then
// leaderboard and the next question (or the podium).
func (c *Client) NextQuestion() error {
	return c.write(protocol.KindNextQuestion, nil)
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(kind string, payload any) error {
	var frame []byte
	var err error
	if payload == nil {
		frame, err = json.Marshal(protocol.Envelope{Type: kind})
	} else {
		frame, err = protocol.Marshal(kind, payload)
	}
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		c.events <- env
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
