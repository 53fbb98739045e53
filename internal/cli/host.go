package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quizlive/internal/domain"
	"quizlive/internal/protocol"
	"quizlive/internal/transport/ws"
)

// NewHostCmd builds the CLI subcommand to host a game from a terminal.
func NewHostCmd(serverURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "host <quiz-id>",
		Short: "Host a game: open a room and drive its pacing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, *serverURL, args[0])
		},
	}
}

func runHost(cmd *cobra.Command, serverURL, quizID string) error {
	client, err := ws.HostGame(cmd.Context(), serverURL, quizID)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	advance := enterPresses()
	started := false

	for {
		var env protocol.Envelope
		select {
		case e, ok := <-client.Events():
			if !ok {
				return nil
			}
			env = e
		case _, ok := <-advance:
			if !ok {
				return nil
			}
			if !started {
				started = true
				if err := client.StartGame(); err != nil {
					return err
				}
			} else if err := client.NextQuestion(); err != nil {
				return err
			}
			continue
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}

		switch env.Type {
		case protocol.KindGameCreated:
			var p protocol.GameCreatedPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "Game PIN: %s\nJoin at:  %s\n", p.PIN, p.JoinURL)
			fmt.Fprintln(out, "Press Enter to start once everyone is in.")

		case protocol.KindPlayerJoined:
			var p protocol.PlayerJoinedPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s joined\n", p.Nickname)

		case protocol.KindPlayerLeft:
			fmt.Fprintln(out, "a player left")

		case protocol.KindQuestion:
			var p protocol.QuestionPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nQuestion %d/%d: %s (%ds)\n", p.QuestionIndex+1, p.TotalQuestions, p.Text, p.TimeLimit)

		case protocol.KindQuestionStats:
			var stats domain.QuestionStats
			if err := protocol.DecodePayload(env, &stats); err != nil {
				return err
			}
			fmt.Fprintf(out, "answered %d/%d (%d correct)\n", stats.AnsweredCount, stats.TotalPlayers, stats.CorrectCount)

		case protocol.KindQuestionEnd:
			var p protocol.QuestionEndPayload
			if err := protocol.DecodePayload(env, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "round over, correct answer was #%d\n", p.CorrectAnswerIndex+1)
			fmt.Fprintln(out, "Press Enter to continue.")

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
			fmt.Fprintln(out, "\nPodium:")
			printEntries(out, p.Podium)
			return nil

		case protocol.KindError:
			var p protocol.ErrorPayload
			_ = protocol.DecodePayload(env, &p)
			fmt.Fprintf(out, "server: %s\n", p.Message)
		}
	}
}

// enterPresses emits a value per line read from stdin, closing on EOF.
func enterPresses() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			ch <- struct{}{}
		}
	}()
	return ch
}

func printEntries(out io.Writer, entries []domain.LeaderboardEntry) {
	for _, e := range entries {
		if e.Nickname == "" {
			fmt.Fprintf(out, "  %d. -\n", e.Rank)
			continue
		}
		fmt.Fprintf(out, "  %d. %s  %d pts\n", e.Rank, e.Nickname, e.Score)
	}
}
