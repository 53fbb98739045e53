package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrPlayerNotFound is returned when a player acts without having joined.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrLobbyOnly is returned when a join arrives after the game started.
	ErrLobbyOnly = errors.New("players can only join in the lobby")
	// ErrInvalidStartConditions means zero players or zero questions.
	ErrInvalidStartConditions = errors.New("cannot start: need at least one player and one question")
	// ErrNoCurrentQuestion means the question cursor is past the end.
	ErrNoCurrentQuestion = errors.New("no current question")
	// ErrQuestionNotActive is returned for answers outside an open round.
	ErrQuestionNotActive = errors.New("question is not active")
	// ErrRoomNotFound indicates an unknown or expired game PIN.
	ErrRoomNotFound = errors.New("game room not found")
	// ErrConnectTimeout is the terminal error for a join attempt that never
	// completed within the connect budget.
	ErrConnectTimeout = errors.New("connection timed out")
)
