package domain

import "time"

// GameState is the lifecycle phase of a live session.
type GameState string

const (
	StateLobby    GameState = "lobby"
	StatePlaying  GameState = "playing"
	StateFinished GameState = "finished"
)

// Answer is one choice on a question. Correctness never leaves the host side.
type Answer struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question with exactly one correct answer and a
// per-question time limit in seconds (10-60).
type Question struct {
	Text      string   `json:"question"`
	Answers   []Answer `json:"answers"`
	TimeLimit int      `json:"timeLimit"`
	Reference string   `json:"reference,omitempty"`
}

// Quiz is an ordered collection of questions supplied by the editor
// collaborator. Sessions borrow it read-only for their lifetime.
type Quiz struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Player is a participant registered in a session.
type Player struct {
	ID       string
	Nickname string
	Score    int
	Answers  map[int]AnswerRecord // question index -> record, write-once
}

// AnswerRecord captures a scored submission. It is immutable once written;
// resubmissions for the same question return the original record.
type AnswerRecord struct {
	QuestionIndex  int       `json:"questionIndex"`
	AnswerIndex    int       `json:"answerIndex"`
	IsCorrect      bool      `json:"isCorrect"`
	Points         int       `json:"points"`
	ResponseTimeMs int64     `json:"responseTime"`
	Timestamp      time.Time `json:"timestamp"`
}

// LeaderboardEntry is a ranked view of one player. Rank is 1-based; ties
// keep join order and still receive distinct sequential ranks.
type LeaderboardEntry struct {
	PlayerID string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// QuestionStats is derived on demand for the current question.
type QuestionStats struct {
	TotalPlayers   int   `json:"totalPlayers"`
	AnsweredCount  int   `json:"answeredCount"`
	CorrectCount   int   `json:"correctCount"`
	IncorrectCount int   `json:"incorrectCount"`
	Distribution   []int `json:"answersDistribution"`
}

// GameSnapshot summarizes session state for the UI.
type GameSnapshot struct {
	State                GameState `json:"state"`
	CurrentQuestionIndex int       `json:"currentQuestionIndex"`
	TotalQuestions       int       `json:"totalQuestions"`
	PlayerCount          int       `json:"playerCount"`
}
