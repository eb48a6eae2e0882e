package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "screener-backend/internal/auth"
	"screener-backend/internal/chunker"
	"screener-backend/internal/chunks"
	"screener-backend/internal/documents"
	"screener-backend/internal/ingest"
	"screener-backend/internal/jobs"
	"screener-backend/internal/llm"
	openai "screener-backend/internal/llm/openai"
	"screener-backend/internal/queries"
	"screener-backend/internal/queue"
	"screener-backend/internal/ranking"
	"screener-backend/internal/retrieval"
	"screener-backend/internal/shared/config"
	"screener-backend/internal/shared/ratelimit"
	"screener-backend/internal/shared/server"
	"screener-backend/internal/shared/storage/db"
	"screener-backend/internal/shared/storage/object"
	localstore "screener-backend/internal/shared/storage/object/local"
	s3store "screener-backend/internal/shared/storage/object/s3"
	"screener-backend/internal/shared/telemetry"
	"screener-backend/internal/usage"
	"screener-backend/internal/users"
)

// App holds shared dependencies for the API server and the ingest worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	JobsRepo      jobs.Repo
	DocumentsRepo documents.Repo
	ChunksRepo    chunks.Repo
	QueriesRepo   queries.Repo
	UsageRepo     usage.Repo
	UsersRepo     users.Repo

	Pipeline         *ingest.Pipeline
	DocumentsService *documents.Service
	QueriesService   *queries.Service
	RankingService   *ranking.Service
	UsageService     *usage.Service
	UsersService     *users.Service
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router. The same App
// backs cmd/api and cmd/worker; the worker only uses Pipeline and Queue.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg, app.Pipeline)
	if err != nil {
		return nil, err
	}
	app.Queue = queueClient
	app.DocumentsService.Enqueuer = &ingest.QueueEnqueuer{Client: queueClient}

	rateStore, err := buildRateLimitStore(cfg)
	if err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		JobsHandler:     jobs.NewHandler(&jobs.Service{Repo: app.JobsRepo}),
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		QueriesHandler:  queries.NewHandler(app.QueriesService),
		RankingHandler:  ranking.NewHandler(app.RankingService),
		UsageHandler:    usage.NewHandler(app.UsageService, app.UsersService),
		UsersHandler:    users.NewHandler(app.UsersService),
		GoogleAuth:      app.GoogleAuth,
		RateLimitStore:  rateStore,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.S3KMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue returns the SQS client when a queue is configured, otherwise an
// in-process client that feeds the pipeline directly.
func buildQueue(ctx context.Context, cfg config.Config, pipeline *ingest.Pipeline) (queue.Client, error) {
	if strings.TrimSpace(cfg.IngestQueueURL) != "" {
		return queue.NewSQSClient(ctx, cfg.IngestQueueURL, cfg.AWSRegion)
	}
	return &queue.MemoryClient{
		Handle: func(ctx context.Context, msg queue.Message) {
			if err := pipeline.Process(ctx, msg.DocumentID); err != nil {
				telemetry.Error("inline ingest failed", map[string]any{
					"documentId": msg.DocumentID,
					"requestId":  msg.RequestID,
					"error":      err.Error(),
				})
			}
		},
	}, nil
}

func buildRateLimitStore(cfg config.Config) (ratelimit.Store, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return ratelimit.NewMemoryStore(nil), nil
	}
	store, err := ratelimit.NewRedisStore(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis rate-limit store: %w", err)
	}
	return store, nil
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.ChunksRepo = &chunks.PGRepo{DB: app.DB}
		app.QueriesRepo = &queries.PGRepo{DB: app.DB}
		app.UsageRepo = &usage.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.JobsRepo = jobs.NewMemoryRepo()
		app.DocumentsRepo = documents.NewMemoryRepo()
		chunkRepo := chunks.NewMemoryRepo()
		app.ChunksRepo = &memoryChunks{MemoryRepo: chunkRepo, docs: app.DocumentsRepo}
		app.QueriesRepo = queries.NewMemoryRepo()
		app.UsageRepo = usage.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	chat := llm.Chat(llm.PlaceholderChat{})
	embedder := llm.Embedder(llm.PlaceholderEmbedder{})
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		chatClient, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.ChatModel)
		if err != nil {
			return err
		}
		embedClient, err := openai.NewEmbedClient(cfg.OpenAIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
		if err != nil {
			return err
		}
		chat = chatClient
		embedder = embedClient
	} else if !isDevLike(cfg.Env) {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}

	app.Pipeline = &ingest.Pipeline{
		Documents: app.DocumentsRepo,
		Chunks:    app.ChunksRepo,
		Store:     app.Store,
		Embedder:  embedder,
		Splitter:  chunker.NewSplitter(cfg.ChunkTargetWords, cfg.ChunkOverlapWords),
	}

	retriever := &retrieval.Retriever{Embedder: embedder, Chunks: app.ChunksRepo}

	app.UsageService = usage.NewService(app.UsageRepo)
	app.UsersService = users.NewService(app.UsersRepo)

	app.DocumentsService = &documents.Service{
		Repo:     app.DocumentsRepo,
		JobsRepo: app.JobsRepo,
		Chunks:   app.ChunksRepo,
		Store:    app.Store,
	}
	app.QueriesService = &queries.Service{
		Repo:      app.QueriesRepo,
		JobsRepo:  app.JobsRepo,
		Documents: app.DocumentsRepo,
		Retriever: retriever,
		Chat:      chat,
		Usage:     app.UsageService,
		Tiers:     app.UsersService,
	}
	app.RankingService = &ranking.Service{
		JobsRepo:  app.JobsRepo,
		Queries:   app.QueriesRepo,
		Retriever: retriever,
		Chat:      chat,
		Usage:     app.UsageService,
		Tiers:     app.UsersService,
	}

	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// memoryChunks teaches the in-memory chunk repo the file name behind each
// document so search hits can report it, as the SQL join does in Postgres.
type memoryChunks struct {
	*chunks.MemoryRepo
	docs documents.Repo
}

func (m *memoryChunks) ReplaceForDocument(ctx context.Context, documentID string, batch []chunks.Chunk) error {
	if doc, err := m.docs.GetAny(ctx, documentID); err == nil {
		m.SetFileName(documentID, doc.FileName)
	}
	return m.MemoryRepo.ReplaceForDocument(ctx, documentID, batch)
}

var _ chunks.Repo = (*memoryChunks)(nil)
