package game

import (
	"sort"
	"sync"
	"time"

	"quizlive/internal/domain"
)

// Session is the live state of one game: the borrowed quiz, the player
// registry, and the question cursor. All methods are safe for concurrent
// use; the room loop is the only writer in practice, but answer submission
// may race a timer expiry and both take the lock.
type Session struct {
	mu   sync.RWMutex
	quiz domain.Quiz
	now  func() time.Time

	state         domain.GameState
	cursor        int
	players       map[string]*domain.Player
	order         []string // player IDs in join order, leaderboard tie order
	questionStart time.Time
	questionOpen  bool
}

func NewSession(quiz domain.Quiz) *Session {
	return NewSessionWithClock(quiz, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		quiz:    quiz,
		now:     now,
		state:   domain.StateLobby,
		players: make(map[string]*domain.Player),
	}
}

// AddPlayer registers a player while the session is in the lobby. Joining
// again with a known ID refreshes the nickname; a reconnect after a drop is
// a brand-new join with a new ID, prior score is not recovered.
func (s *Session) AddPlayer(id, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return domain.ErrLobbyOnly
	}
	if player, ok := s.players[id]; ok {
		player.Nickname = nickname
		return nil
	}
	s.players[id] = &domain.Player{
		ID:       id,
		Nickname: nickname,
		Answers:  make(map[int]domain.AnswerRecord),
	}
	s.order = append(s.order, id)
	return nil
}

// RemovePlayer drops a player in any state. Their scored answers disappear
// with them: subsequent stats and leaderboards only count remaining players.
func (s *Session) RemovePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Players returns the registered players in join order.
func (s *Session) Players() []domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.players[id])
	}
	return out
}

// StartGame moves Lobby -> Playing. It fails without mutating state when
// there are no players or the quiz has no questions.
func (s *Session) StartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateLobby {
		return domain.ErrInvalidStartConditions
	}
	if len(s.players) == 0 || len(s.quiz.Questions) == 0 {
		return domain.ErrInvalidStartConditions
	}
	s.state = domain.StatePlaying
	s.cursor = 0
	return nil
}

// QuestionPrompt is the player-facing view of a question: answer texts in
// order, correctness withheld.
type QuestionPrompt struct {
	QuestionIndex  int
	TotalQuestions int
	Text           string
	Answers        []AnswerOption
	TimeLimit      int
	Reference      string
}

type AnswerOption struct {
	Index int
	Text  string
}

// StartQuestion opens the round for the question under the cursor and
// records the start timestamp used for the speed bonus.
func (s *Session) StartQuestion() (QuestionPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePlaying || s.cursor >= len(s.quiz.Questions) {
		return QuestionPrompt{}, domain.ErrNoCurrentQuestion
	}

	question := s.quiz.Questions[s.cursor]
	s.questionStart = s.now()
	s.questionOpen = true

	answers := make([]AnswerOption, len(question.Answers))
	for i, a := range question.Answers {
		answers[i] = AnswerOption{Index: i, Text: a.Text}
	}
	return QuestionPrompt{
		QuestionIndex:  s.cursor,
		TotalQuestions: len(s.quiz.Questions),
		Text:           question.Text,
		Answers:        answers,
		TimeLimit:      question.TimeLimit,
		Reference:      question.Reference,
	}, nil
}

// SubmitAnswer scores a player's submission exactly once per question.
// A resubmission returns the original record unchanged, even after the
// round closed. An out-of-range answer index is a wrong answer, not an
// error. A first answer arriving after the round was closed (timer fired
// or host advanced) is rejected.
func (s *Session) SubmitAnswer(playerID string, answerIndex int) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[playerID]
	if !ok {
		return domain.AnswerRecord{}, domain.ErrPlayerNotFound
	}
	// A player who already holds a record for this question gets it back
	// no matter the round state, so resubmission stays idempotent even
	// after the reveal.
	if existing, ok := player.Answers[s.cursor]; ok {
		return existing, nil
	}
	if s.state != domain.StatePlaying || !s.questionOpen || s.cursor >= len(s.quiz.Questions) {
		return domain.AnswerRecord{}, domain.ErrQuestionNotActive
	}

	question := s.quiz.Questions[s.cursor]
	now := s.now()
	responseTime := now.Sub(s.questionStart)

	correct := answerIndex >= 0 && answerIndex < len(question.Answers) && question.Answers[answerIndex].IsCorrect
	points := scoreAnswer(correct, responseTime, time.Duration(question.TimeLimit)*time.Second)
	player.Score += points

	record := domain.AnswerRecord{
		QuestionIndex:  s.cursor,
		AnswerIndex:    answerIndex,
		IsCorrect:      correct,
		Points:         points,
		ResponseTimeMs: responseTime.Milliseconds(),
		Timestamp:      now,
	}
	player.Answers[s.cursor] = record
	return record, nil
}

// EndQuestion closes the current round and reveals the correct answer
// index. Late submissions after this point get ErrQuestionNotActive.
// Calling it twice is harmless.
func (s *Session) EndQuestion() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.quiz.Questions) {
		return -1, domain.ErrNoCurrentQuestion
	}
	s.questionOpen = false
	return correctAnswerIndex(s.quiz.Questions[s.cursor]), nil
}

// NextQuestion advances the cursor. It reports whether another question
// remains; when the cursor runs past the last question the session
// transitions to Finished.
func (s *Session) NextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questionOpen = false
	s.cursor++
	if s.cursor >= len(s.quiz.Questions) {
		s.state = domain.StateFinished
		return false
	}
	return true
}

// AllPlayersAnswered reports whether every currently-registered player holds
// a record for the current question. Removing a player mid-question shrinks
// the denominator.
func (s *Session) AllPlayersAnswered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, player := range s.players {
		if _, ok := player.Answers[s.cursor]; !ok {
			return false
		}
	}
	return true
}

// QuestionStats recomputes answered/correct/incorrect counts and the
// per-answer distribution for the current question.
func (s *Session) QuestionStats() (domain.QuestionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cursor >= len(s.quiz.Questions) {
		return domain.QuestionStats{}, domain.ErrNoCurrentQuestion
	}

	stats := domain.QuestionStats{
		TotalPlayers: len(s.players),
		Distribution: make([]int, len(s.quiz.Questions[s.cursor].Answers)),
	}
	for _, player := range s.players {
		record, ok := player.Answers[s.cursor]
		if !ok {
			continue
		}
		stats.AnsweredCount++
		if record.IsCorrect {
			stats.CorrectCount++
		} else {
			stats.IncorrectCount++
		}
		if record.AnswerIndex >= 0 && record.AnswerIndex < len(stats.Distribution) {
			stats.Distribution[record.AnswerIndex]++
		}
	}
	return stats, nil
}

// Leaderboard returns all players ranked by score descending. Ties keep
// join order (stable sort) and still get distinct sequential ranks.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboardLocked()
}

func (s *Session) leaderboardLocked() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		player := s.players[id]
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID: player.ID,
			Nickname: player.Nickname,
			Score:    player.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// PlayerRank returns the leaderboard entry for one player.
func (s *Session) PlayerRank(playerID string) (domain.LeaderboardEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.leaderboardLocked() {
		if entry.PlayerID == playerID {
			return entry, true
		}
	}
	return domain.LeaderboardEntry{}, false
}

// PodiumSize is the number of slots shown at game end.
const PodiumSize = 3

// Podium returns the top three leaderboard entries, padded with empty
// placeholder slots when fewer than three players remain.
func (s *Session) Podium() []domain.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.leaderboardLocked()
	podium := make([]domain.LeaderboardEntry, PodiumSize)
	for i := 0; i < PodiumSize; i++ {
		if i < len(entries) {
			podium[i] = entries[i]
		} else {
			podium[i] = domain.LeaderboardEntry{Rank: i + 1}
		}
	}
	return podium
}

// Snapshot summarizes the session for the UI.
func (s *Session) Snapshot() domain.GameSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.GameSnapshot{
		State:                s.state,
		CurrentQuestionIndex: s.cursor,
		TotalQuestions:       len(s.quiz.Questions),
		PlayerCount:          len(s.players),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() domain.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentQuestion returns the question under the cursor.
func (s *Session) CurrentQuestion() (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cursor >= len(s.quiz.Questions) {
		return domain.Question{}, domain.ErrNoCurrentQuestion
	}
	return s.quiz.Questions[s.cursor], nil
}

// Reset clears all players and answers and returns to a pre-lobby state,
// keeping the borrowed quiz.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.StateLobby
	s.cursor = 0
	s.players = make(map[string]*domain.Player)
	s.order = nil
	s.questionStart = time.Time{}
	s.questionOpen = false
}

func correctAnswerIndex(q domain.Question) int {
	for i, a := range q.Answers {
		if a.IsCorrect {
			return i
		}
	}
	return -1
}
