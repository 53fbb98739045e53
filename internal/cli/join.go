package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quizlive/internal/protocol"
	"quizlive/internal/transport/ws"
)

// NewJoinCmd builds the CLI subcommand to play a game from a terminal.
func NewJoinCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <pin> <nickname>",
		Short: "Join a game by PIN and answer questions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, *serverURL, args[0], args[1])
		},
	}
}

func runJoin(cmd *cobra.Command, serverURL, pin, nickname string) error {
	client, err := ws.JoinGame(cmd.Context(), serverURL, pin, nickname)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	answers := answerLines()

	for {
		var env protocol.Envelope
		select {
		case e, ok := <-client.Events():
			if !ok {
				return nil
			}
			env = e
		case line, ok := <-answers:
			if !ok {
				return nil
			}
			idx, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil || idx < 1 {
				fmt.Fprintln(out, "type the answer number, e.g. 2")
				continue
			}
			if err := client.SubmitAnswer(idx - 1); err != nil {
				return err
			}
			continue
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}

		switch env.Type {
		case protocol.KindPlayerJoined:
			var p protocol.PlayerJoinedPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			if p.Nickname == nickname {
				fmt.Fprintf(out, "you're in, waiting for the host to start\n")
			} else {
				fmt.Fprintf(out, "%s joined\n", p.Nickname)
			}

		case protocol.KindGameStart:
			fmt.Fprintln(out, "game on!")

		case protocol.KindQuestion:
			var p protocol.QuestionPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nQuestion %d/%d: %s (%ds)\n", p.QuestionIndex+1, p.TotalQuestions, p.Text, p.TimeLimit)
			for _, a := range p.Answers {
				fmt.Fprintf(out, "  %d) %s\n", a.Index+1, a.Text)
			}
			fmt.Fprint(out, "> ")

		case protocol.KindAnswerResult:
			var p protocol.AnswerResultPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			if p.IsCorrect {
				fmt.Fprintf(out, "correct! +%d (total %d)\n", p.Points, p.TotalScore)
			} else {
				fmt.Fprintf(out, "wrong (total %d)\n", p.TotalScore)
			}

		case protocol.KindQuestionEnd:
			var p protocol.QuestionEndPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "correct answer was #%d\n", p.CorrectAnswerIndex+1)

		case protocol.KindLeaderboard:
			var p protocol.LeaderboardPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nLeaderboard:")
			printEntries(out, p.Entries)

		case protocol.KindGameEnd:
			var p protocol.GameEndPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nFinal podium:")
			printEntries(out, p.Podium)
			return nil

		case protocol.KindError:
			var p protocol.ErrorPayload
			_ = protocol.DecodePayload(env, &p)
			fmt.Fprintf(out, "server: %s\n", p.Message)
		}
	}
}

// answerLines emits each line typed on stdin, closing on EOF.
func answerLines() <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}
