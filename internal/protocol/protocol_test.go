package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeClientJoin(t *testing.T) {
	msg, err := DecodeClient([]byte(`{"type":"join","payload":{"nickname":"Alice"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	join, ok := msg.(Join)
	if !ok {
		t.Fatalf("expected Join, got %T", msg)
	}
	if join.Nickname != "Alice" {
		t.Fatalf("nickname = %q", join.Nickname)
	}
}

func TestDecodeClientAnswer(t *testing.T) {
	msg, err := DecodeClient([]byte(`{"type":"answer","payload":{"answerIndex":0}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	answer, ok := msg.(Answer)
	if !ok {
		t.Fatalf("expected Answer, got %T", msg)
	}
	if answer.AnswerIndex != 0 {
		t.Fatalf("answerIndex = %d", answer.AnswerIndex)
	}
}

func TestDecodeClientControls(t *testing.T) {
	if msg, err := DecodeClient([]byte(`{"type":"startGame"}`)); err != nil {
		t.Fatalf("decode startGame: %v", err)
	} else if _, ok := msg.(StartGame); !ok {
		t.Fatalf("expected StartGame, got %T", msg)
	}

	if msg, err := DecodeClient([]byte(`{"type":"nextQuestion"}`)); err != nil {
		t.Fatalf("decode nextQuestion: %v", err)
	} else if _, ok := msg.(NextQuestion); !ok {
		t.Fatalf("expected NextQuestion, got %T", msg)
	}
}

func TestDecodeClientRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"unknown kind", `{"type":"teleport","payload":{}}`},
		{"join without nickname", `{"type":"join","payload":{}}`},
		{"join without payload", `{"type":"join"}`},
		{"answer without index", `{"type":"answer","payload":{}}`},
		{"answer negative index", `{"type":"answer","payload":{"answerIndex":-1}}`},
		{"answer index too large", `{"type":"answer","payload":{"answerIndex":4}}`},
		{"answer index wrong type", `{"type":"answer","payload":{"answerIndex":"two"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClient([]byte(tc.raw))
			if err == nil {
				t.Fatalf("expected rejection")
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *protocol.Error, got %T: %v", err, err)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	frame, err := Marshal(KindQuestionEnd, QuestionEndPayload{CorrectAnswerIndex: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != KindQuestionEnd {
		t.Fatalf("type = %q", env.Type)
	}
	var payload QuestionEndPayload
	if err := DecodePayload(env, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.CorrectAnswerIndex != 2 {
		t.Fatalf("correctAnswerIndex = %d", payload.CorrectAnswerIndex)
	}
}
