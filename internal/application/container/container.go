// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/BrightFrames/tapx-go/internal/application/services"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/email"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/performance"
	catalogrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	intentrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/intent"
	journeyrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/journey"
	userrepo "github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/tasks"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Infrastructure
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	DB          *database.DB
	TaskRunner  *tasks.Runner
	Mailer      *email.Client

	// Repositories
	IntentRepo *intentrepo.SQLIntentRepository
	EventRepo  *journeyrepo.SQLEventRepository
	BlockRepo  *catalogrepo.SQLBlockRepository
	UserRepo   *userrepo.SQLUserRepository
	RecordRepo *userrepo.SQLRecordRepository

	// Application services
	AuthService        *services.AuthService
	IntentService      *services.IntentService
	JourneyService     *services.JourneyService
	JourneyLinkService *services.JourneyLinkService
	EnquiryService     *services.EnquiryService
	BlockService       *services.BlockService
	FeedBroadcaster    *services.FeedBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger) *Container {
	perfTracker := performance.NewTracker(config.SlowQueryThreshold)
	runner := tasks.NewRunner(logger)
	mailer := email.NewClient()

	intentRepo := intentrepo.NewSQLIntentRepository(db, logger)
	eventRepo := journeyrepo.NewSQLEventRepository(db, logger)
	blockRepo := catalogrepo.NewSQLBlockRepository(db, logger)
	usersRepo := userrepo.NewSQLUserRepository(db, logger)
	recordRepo := userrepo.NewSQLRecordRepository(db, logger)

	authService := services.NewAuthService(usersRepo, logger)
	feed := services.NewFeedBroadcaster(logger)
	linkService := services.NewJourneyLinkService(eventRepo, logger)

	return &Container{
		Logger:      logger,
		PerfTracker: perfTracker,
		DB:          db,
		TaskRunner:  runner,
		Mailer:      mailer,

		IntentRepo: intentRepo,
		EventRepo:  eventRepo,
		BlockRepo:  blockRepo,
		UserRepo:   usersRepo,
		RecordRepo: recordRepo,

		AuthService:        authService,
		IntentService:      services.NewIntentService(intentRepo, blockRepo, recordRepo, authService, runner, logger, perfTracker),
		JourneyService:     services.NewJourneyService(eventRepo, recordRepo, authService, feed, logger, perfTracker),
		JourneyLinkService: linkService,
		EnquiryService:     services.NewEnquiryService(recordRepo, usersRepo, blockRepo, linkService, runner, mailer, logger),
		BlockService:       services.NewBlockService(blockRepo, authService, runner, logger),
		FeedBroadcaster:    feed,
	}
}
