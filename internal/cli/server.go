package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizlive/internal/config"
	"quizlive/internal/domain"
	"quizlive/internal/infra/memory"
	pgloader "quizlive/internal/infra/postgres"
	redisinfra "quizlive/internal/infra/redis"
	"quizlive/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the game server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + finalPort
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader
	switch {
	case pool != nil:
		loader = pgloader.NewQuizLoader(pool)
	case cfg.Quiz.Dir != "":
		loader = memory.NewFileQuizLoader(cfg.Quiz.Dir)
	default:
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo ws.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var liveness ws.RoomLiveness
	if redisClient != nil {
		liveness = redisinfra.NewRoomStore(redisClient, redisTTL)
	}
	rooms := ws.NewManager(liveness)
	wsServer := ws.NewServer(quizRepo, rooms, baseURL)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     wsServer.Routes(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any sane value.
	}

	go func() {
		log.Printf("starting quizlive on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	rooms.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal built-in quiz; point quiz.dir or
// postgres.url at real content in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					Text: "What is 2 + 2?",
					Answers: []domain.Answer{
						{Text: "3", IsCorrect: false},
						{Text: "4", IsCorrect: true},
						{Text: "5", IsCorrect: false},
					},
					TimeLimit: 20,
				},
				{
					Text: "Which planet is closest to the sun?",
					Answers: []domain.Answer{
						{Text: "Venus", IsCorrect: false},
						{Text: "Mercury", IsCorrect: true},
						{Text: "Mars", IsCorrect: false},
						{Text: "Earth", IsCorrect: false},
					},
					TimeLimit: 20,
				},
			},
		},
	}
}
