// Package protocol defines the wire messages exchanged between the game
// server, the host client, and player clients. Every message is an envelope
// {type, payload}; inbound payloads are schema-checked here so malformed
// input never reaches the session.
package protocol

import (
	"encoding/json"
	"fmt"

	"quizlive/internal/domain"
)

// Message kinds. Join and Answer flow player->server; StartGame and
// NextQuestion are host controls; the rest flow server->clients.
const (
	KindJoin         = "join"
	KindAnswer       = "answer"
	KindStartGame    = "startGame"
	KindNextQuestion = "nextQuestion"

	KindGameCreated   = "gameCreated"
	KindPlayerJoined  = "playerJoined"
	KindPlayerLeft    = "playerLeft"
	KindGameStart     = "gameStart"
	KindQuestion      = "question"
	KindAnswerResult  = "answerResult"
	KindQuestionEnd   = "questionEnd"
	KindLeaderboard   = "leaderboard"
	KindGameEnd       = "gameEnd"
	KindQuestionStats = "questionStats"
	KindError         = "error"
)

// Envelope is the outer wire frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound pairs a kind with a concrete payload for WriteJSON.
type Outbound[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

// Error reports a message rejected at the protocol boundary. The
// connection stays open; the message is logged and dropped.
type Error struct {
	Kind   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol: %s message rejected: %s", e.Kind, e.Reason)
}

// JoinPayload is a player's request to enter the lobby.
type JoinPayload struct {
	Nickname string `json:"nickname"`
	PlayerID string `json:"playerId,omitempty"`
}

// AnswerPayload is a single answer submission. The index is a pointer so a
// missing field is distinguishable from answer zero.
type AnswerPayload struct {
	AnswerIndex *int `json:"answerIndex"`
}

type GameCreatedPayload struct {
	PIN     string `json:"pin"`
	JoinURL string `json:"joinUrl"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type AnswerOptionPayload struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// QuestionPayload starts a round. Correctness is withheld.
type QuestionPayload struct {
	QuestionIndex  int                   `json:"questionIndex"`
	TotalQuestions int                   `json:"totalQuestions"`
	Text           string                `json:"question"`
	Answers        []AnswerOptionPayload `json:"answers"`
	TimeLimit      int                   `json:"timeLimit"`
	Reference      string                `json:"reference,omitempty"`
}

// AnswerResultPayload is private per-player feedback.
type AnswerResultPayload struct {
	IsCorrect  bool `json:"isCorrect"`
	Points     int  `json:"points"`
	TotalScore int  `json:"totalScore"`
}

type QuestionEndPayload struct {
	CorrectAnswerIndex int `json:"correctAnswerIndex"`
}

type LeaderboardPayload struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type GameEndPayload struct {
	Podium []domain.LeaderboardEntry `json:"podium"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ClientMessage is the closed union of messages a client may send.
type ClientMessage interface {
	clientMessage()
}

// Join enters the lobby.
type Join struct{ JoinPayload }

// Answer submits an answer index for the current question.
type Answer struct{ AnswerIndex int }

// StartGame is the host control to leave the lobby.
type StartGame struct{}

// NextQuestion is the host control to advance the cursor.
type NextQuestion struct{}

func (Join) clientMessage()         {}
func (Answer) clientMessage()       {}
func (StartGame) clientMessage()    {}
func (NextQuestion) clientMessage() {}

// DecodeClient parses and validates a raw client frame. It returns a
// *Error for unknown kinds and malformed payloads.
func DecodeClient(data []byte) (ClientMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &Error{Kind: "unknown", Reason: "invalid envelope: " + err.Error()}
	}

	switch env.Type {
	case KindJoin:
		var p JoinPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.Nickname == "" {
			return nil, &Error{Kind: KindJoin, Reason: "nickname is required"}
		}
		return Join{p}, nil

	case KindAnswer:
		var p AnswerPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		if p.AnswerIndex == nil {
			return nil, &Error{Kind: KindAnswer, Reason: "answerIndex is required"}
		}
		if *p.AnswerIndex < 0 || *p.AnswerIndex >= domain.MaxAnswers {
			return nil, &Error{Kind: KindAnswer, Reason: fmt.Sprintf("answerIndex %d out of range", *p.AnswerIndex)}
		}
		return Answer{AnswerIndex: *p.AnswerIndex}, nil

	case KindStartGame:
		return StartGame{}, nil

	case KindNextQuestion:
		return NextQuestion{}, nil

	default:
		return nil, &Error{Kind: env.Type, Reason: "unsupported message type"}
	}
}

func unmarshalPayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return &Error{Kind: env.Type, Reason: "payload is required"}
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return &Error{Kind: env.Type, Reason: "invalid payload: " + err.Error()}
	}
	return nil
}

// DecodePayload unmarshals a server frame's payload into v. Player clients
// use it after switching on the envelope type.
func DecodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return &Error{Kind: env.Type, Reason: "payload is required"}
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return &Error{Kind: env.Type, Reason: "invalid payload: " + err.Error()}
	}
	return nil
}

// Marshal frames a payload for the wire.
func Marshal(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}
