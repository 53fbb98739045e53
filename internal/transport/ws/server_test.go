package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizlive/internal/domain"
	"quizlive/internal/protocol"
)

type stubQuizRepo struct {
	quizzes map[string]domain.Quiz
}

func (r *stubQuizRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func twoQuestionQuiz() domain.Quiz {
	question := domain.Question{
		Text: "Pick the right one",
		Answers: []domain.Answer{
			{Text: "Wrong", IsCorrect: false},
			{Text: "Right", IsCorrect: true},
		},
		TimeLimit: 30,
	}
	return domain.Quiz{ID: "quiz-1", Title: "Test Quiz", Questions: []domain.Question{question, question}}
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	repo := &stubQuizRepo{quizzes: map[string]domain.Quiz{"quiz-1": twoQuestionQuiz()}}
	srv := NewServer(repo, NewManager(nil), "http://quiz.test")
	hs := httptest.NewServer(srv.Routes())
	t.Cleanup(hs.Close)
	return hs, "ws" + strings.TrimPrefix(hs.URL, "http")
}

// waitFor drains events until one of the wanted kind arrives, failing on
// error frames and timeouts along the way.
func waitFor(t *testing.T, c *Client, kind string) protocol.Envelope {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case env, ok := <-c.Events():
			if !ok {
				t.Fatalf("connection closed while waiting for %s", kind)
			}
			if env.Type == kind {
				return env
			}
			if env.Type == protocol.KindError {
				var p protocol.ErrorPayload
				_ = protocol.DecodePayload(env, &p)
				t.Fatalf("server error while waiting for %s: %s", kind, p.Message)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestFullGameFlow(t *testing.T) {
	_, wsURL := newTestServer(t)
	ctx := context.Background()

	host, err := HostGame(ctx, wsURL, "quiz-1")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	defer host.Close()

	var created protocol.GameCreatedPayload
	if err := protocol.DecodePayload(waitFor(t, host, protocol.KindGameCreated), &created); err != nil {
		t.Fatalf("gameCreated payload: %v", err)
	}
	if !validPIN(created.PIN) {
		t.Fatalf("bad pin %q", created.PIN)
	}
	if created.JoinURL != "http://quiz.test/play/"+created.PIN {
		t.Fatalf("join url = %q", created.JoinURL)
	}

	alice, err := JoinGame(ctx, wsURL, created.PIN, "Alice")
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	defer alice.Close()
	waitFor(t, alice, protocol.KindPlayerJoined)
	waitFor(t, host, protocol.KindPlayerJoined)

	bob, err := JoinGame(ctx, wsURL, created.PIN, "Bob")
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}
	defer bob.Close()
	waitFor(t, bob, protocol.KindPlayerJoined)
	waitFor(t, host, protocol.KindPlayerJoined)

	if err := host.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	waitFor(t, alice, protocol.KindGameStart)
	waitFor(t, bob, protocol.KindGameStart)

	var question protocol.QuestionPayload
	if err := protocol.DecodePayload(waitFor(t, alice, protocol.KindQuestion), &question); err != nil {
		t.Fatalf("question payload: %v", err)
	}
	if question.QuestionIndex != 0 || question.TotalQuestions != 2 {
		t.Fatalf("question = %+v", question)
	}
	for _, a := range question.Answers {
		if strings.Contains(a.Text, "isCorrect") {
			t.Fatalf("correctness leaked: %+v", a)
		}
	}
	waitFor(t, bob, protocol.KindQuestion)

	if err := alice.SubmitAnswer(1); err != nil { // correct
		t.Fatalf("alice answer: %v", err)
	}
	var result protocol.AnswerResultPayload
	if err := protocol.DecodePayload(waitFor(t, alice, protocol.KindAnswerResult), &result); err != nil {
		t.Fatalf("answerResult payload: %v", err)
	}
	if !result.IsCorrect || result.Points < 1000 || result.Points > 1500 {
		t.Fatalf("alice result = %+v", result)
	}

	var stats domain.QuestionStats
	if err := protocol.DecodePayload(waitFor(t, host, protocol.KindQuestionStats), &stats); err != nil {
		t.Fatalf("stats payload: %v", err)
	}
	if stats.TotalPlayers != 2 || stats.AnsweredCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if err := bob.SubmitAnswer(0); err != nil { // wrong
		t.Fatalf("bob answer: %v", err)
	}

	// Everyone answered: the round ends without waiting for the timer.
	var end protocol.QuestionEndPayload
	if err := protocol.DecodePayload(waitFor(t, alice, protocol.KindQuestionEnd), &end); err != nil {
		t.Fatalf("questionEnd payload: %v", err)
	}
	if end.CorrectAnswerIndex != 1 {
		t.Fatalf("correctAnswerIndex = %d", end.CorrectAnswerIndex)
	}
	waitFor(t, bob, protocol.KindQuestionEnd)

	if err := host.NextQuestion(); err != nil {
		t.Fatalf("next question: %v", err)
	}
	var board protocol.LeaderboardPayload
	if err := protocol.DecodePayload(waitFor(t, alice, protocol.KindLeaderboard), &board); err != nil {
		t.Fatalf("leaderboard payload: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].Nickname != "Alice" || board.Entries[0].Rank != 1 {
		t.Fatalf("leaderboard = %+v", board.Entries)
	}

	if err := protocol.DecodePayload(waitFor(t, alice, protocol.KindQuestion), &question); err != nil {
		t.Fatalf("second question payload: %v", err)
	}
	if question.QuestionIndex != 1 {
		t.Fatalf("expected question 1, got %d", question.QuestionIndex)
	}
	waitFor(t, bob, protocol.KindQuestion)

	if err := alice.SubmitAnswer(1); err != nil {
		t.Fatalf("alice answer 2: %v", err)
	}
	if err := bob.SubmitAnswer(1); err != nil {
		t.Fatalf("bob answer 2: %v", err)
	}
	waitFor(t, alice, protocol.KindQuestionEnd)

	if err := host.NextQuestion(); err != nil {
		t.Fatalf("final advance: %v", err)
	}
	var podium protocol.GameEndPayload
	if err := protocol.DecodePayload(waitFor(t, bob, protocol.KindGameEnd), &podium); err != nil {
		t.Fatalf("gameEnd payload: %v", err)
	}
	if len(podium.Podium) != 3 {
		t.Fatalf("podium size = %d", len(podium.Podium))
	}
	if podium.Podium[0].Nickname != "Alice" {
		t.Fatalf("podium = %+v", podium.Podium)
	}
	if podium.Podium[2].Nickname != "" {
		t.Fatalf("expected empty third slot, got %+v", podium.Podium[2])
	}
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	_, wsURL := newTestServer(t)
	ctx := context.Background()

	host, err := HostGame(ctx, wsURL, "quiz-1")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	defer host.Close()
	var created protocol.GameCreatedPayload
	_ = protocol.DecodePayload(waitFor(t, host, protocol.KindGameCreated), &created)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/play/"+created.PIN+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"warp"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var env protocol.Envelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != protocol.KindError {
		t.Fatalf("expected error frame, got %s", env.Type)
	}

	// The connection survived; a real join still works.
	join, _ := protocol.Marshal(protocol.KindJoin, protocol.JoinPayload{Nickname: "Carol"})
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read join ack: %v", err)
	}
	if env.Type != protocol.KindPlayerJoined {
		t.Fatalf("expected playerJoined, got %s", env.Type)
	}
}

func TestJoinAfterStartRejected(t *testing.T) {
	_, wsURL := newTestServer(t)
	ctx := context.Background()

	host, err := HostGame(ctx, wsURL, "quiz-1")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	defer host.Close()
	var created protocol.GameCreatedPayload
	_ = protocol.DecodePayload(waitFor(t, host, protocol.KindGameCreated), &created)

	alice, err := JoinGame(ctx, wsURL, created.PIN, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer alice.Close()
	waitFor(t, alice, protocol.KindPlayerJoined)
	waitFor(t, host, protocol.KindPlayerJoined)

	if err := host.StartGame(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, alice, protocol.KindGameStart)

	late, err := JoinGame(ctx, wsURL, created.PIN, "Latecomer")
	if err != nil {
		t.Fatalf("late dial: %v", err)
	}
	defer late.Close()

	env := <-late.Events()
	if env.Type != protocol.KindError {
		t.Fatalf("expected error for mid-game join, got %s", env.Type)
	}
	var p protocol.ErrorPayload
	_ = protocol.DecodePayload(env, &p)
	if p.Message != domain.ErrLobbyOnly.Error() {
		t.Fatalf("error = %q", p.Message)
	}
}

func TestStartGameWithoutPlayersFails(t *testing.T) {
	_, wsURL := newTestServer(t)

	host, err := HostGame(context.Background(), wsURL, "quiz-1")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	defer host.Close()
	waitFor(t, host, protocol.KindGameCreated)

	if err := host.StartGame(); err != nil {
		t.Fatalf("send start: %v", err)
	}
	env := <-host.Events()
	if env.Type != protocol.KindError {
		t.Fatalf("expected error, got %s", env.Type)
	}
	var p protocol.ErrorPayload
	_ = protocol.DecodePayload(env, &p)
	if p.Message != domain.ErrInvalidStartConditions.Error() {
		t.Fatalf("error = %q", p.Message)
	}
}

func TestUnknownQuizRejected(t *testing.T) {
	_, wsURL := newTestServer(t)

	if _, err := HostGame(context.Background(), wsURL, "no-such-quiz"); err == nil {
		t.Fatalf("expected handshake rejection for unknown quiz")
	}
}
