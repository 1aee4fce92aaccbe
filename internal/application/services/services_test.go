package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain/catalog"
	"github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/email"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/performance"
	catalogrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	intentrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/intent"
	journeyrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/journey"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/tasks"
)

// testEnv wires the full service stack over an in-memory database.
type testEnv struct {
	db      *database.DB
	runner  *tasks.Runner
	blocks  *catalogrepo.SQLBlockRepository
	intents *intentrepo.SQLIntentRepository
	events  *journeyrepo.SQLEventRepository
	users   *userrepo.SQLUserRepository
	records *userrepo.SQLRecordRepository

	auth    *AuthService
	intent  *IntentService
	journey *JourneyService
	linker  *JourneyLinkService
	enquiry *EnquiryService
	block   *BlockService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	perfTracker := performance.NewTracker(time.Second)
	runner := tasks.NewRunner(logger)
	mailer := email.NewClient() // nil unless email is configured

	blocks := catalogrepo.NewSQLBlockRepository(db, logger)
	intents := intentrepo.NewSQLIntentRepository(db, logger)
	events := journeyrepo.NewSQLEventRepository(db, logger)
	users := userrepo.NewSQLUserRepository(db, logger)
	records := userrepo.NewSQLRecordRepository(db, logger)

	auth := NewAuthService(users, logger)
	feed := NewFeedBroadcaster(logger)
	linker := NewJourneyLinkService(events, logger)

	return &testEnv{
		db:      db,
		runner:  runner,
		blocks:  blocks,
		intents: intents,
		events:  events,
		users:   users,
		records: records,

		auth:    auth,
		intent:  NewIntentService(intents, blocks, records, auth, runner, logger, perfTracker),
		journey: NewJourneyService(events, records, auth, feed, logger, perfTracker),
		linker:  linker,
		enquiry: NewEnquiryService(records, users, blocks, linker, runner, mailer, logger),
		block:   NewBlockService(blocks, auth, runner, logger),
	}
}

// seedSeller creates a user with a profile and returns both.
func (env *testEnv) seedSeller(t *testing.T, emailAddr, username string) (*user.User, *user.Profile) {
	t.Helper()

	now := time.Now().UTC()
	u := &user.User{
		ID:           security.GenerateULID(),
		Email:        emailAddr,
		PasswordHash: "x",
		CreatedAt:    now,
	}
	if err := env.users.CreateUser(u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	p := &user.Profile{
		ID:        security.GenerateULID(),
		UserID:    u.ID,
		Username:  username,
		CreatedAt: now,
	}
	if err := env.users.CreateProfile(p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return u, p
}

// seedBlock creates a block on a profile.
func (env *testEnv) seedBlock(t *testing.T, profileID, ctaType string, requiresLogin bool) *catalog.Block {
	t.Helper()

	b := &catalog.Block{
		ID:            security.GenerateULID(),
		ProfileID:     profileID,
		BlockType:     "product",
		Title:         "Test Block",
		CTAType:       ctaType,
		RequiresLogin: requiresLogin,
		CreatedAt:     time.Now().UTC(),
	}
	if err := env.blocks.Create(b); err != nil {
		t.Fatalf("seed block: %v", err)
	}
	return b
}
