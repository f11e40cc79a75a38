package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/ideabox/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ideabox/internal/adapters/notify/local"
	repo "github.com/vncsmyrnk/ideabox/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
	"github.com/vncsmyrnk/ideabox/internal/core/services"
)

const jwtSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	SummarySvc  ports.SummaryService
	Admin       uuid.UUID
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dirPath, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()

	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db))

	store := repo.NewStore(db)
	notifier := local.NewNotifier()

	quota := services.NewQuotaService(store, services.QuotaConfig{})
	voteSvc := services.NewVoteService(store, quota, notifier, nil, 5*time.Second)
	admin := uuid.New()
	ideaSvc := services.NewIdeaService(store, voteSvc, notifier, nil, services.IdeaConfig{
		AutoVote: true,
		Admins:   []uuid.UUID{admin},
		Timeout:  5 * time.Second,
	})
	profileSvc := services.NewProfileService(store, 5*time.Second, nil)

	_, err = notifier.Subscribe(ctx, ideaSvc.HandleChange)
	require.NoError(t, err)

	router := handler.NewHandler(handler.RouterConfig{
		Ideas:          handler.NewIdeaHandler(ideaSvc),
		Votes:          handler.NewVoteHandler(voteSvc),
		Users:          handler.NewUserHandler(profileSvc, voteSvc, quota),
		Auth:           handler.NewAuthenticator(jwtSecret),
		AllowedOrigins: []string{"*"},
		Health:         store.Ping,
	})

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		SummarySvc:  services.NewSummaryService(store),
		Admin:       admin,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func createUserAndToken(t *testing.T, db *sql.DB) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	email := fmt.Sprintf("user-%s@example.com", userID)
	name := fmt.Sprintf("User %s", userID)
	_, err := db.Exec("INSERT INTO profiles (id, email, full_name) VALUES ($1, $2, $3)", userID, email, name)
	require.NoError(t, err)

	return userID, tokenFor(t, userID)
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signedToken
}
