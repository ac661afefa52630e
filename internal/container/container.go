package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/krishna100204/EventApp/internal/config"
	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/middleware"
	"github.com/krishna100204/EventApp/internal/models"
	"github.com/krishna100204/EventApp/internal/realtime"
	"github.com/krishna100204/EventApp/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	MongoDBClient *mongo.Client
	Repo          *models.MongodbRepo
	Tokens        *helpers.TokenManager
	Registry      *realtime.Registry
	Broadcaster   *realtime.Broadcaster
	Realtime      *realtime.Handler
	AuthLimiter   *middleware.RateLimiter
	UserService   *services.UserService
	EventService  *services.EventService
}

// NewContainer wires the repositories, services and realtime fan-out. cld
// may be nil, in which case event images are rejected.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	mongoDBClient *mongo.Client,
	cld *cloudinary.Cloudinary,
	tokens *helpers.TokenManager,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)

	registry := realtime.NewRegistry(logger)
	broadcaster := realtime.NewBroadcaster(registry, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		MongoDBClient: mongoDBClient,
		Repo:          repo,
		Tokens:        tokens,
		Registry:      registry,
		Broadcaster:   broadcaster,
		Realtime:      realtime.NewHandler(registry, cfg.AllowedOrigins, logger),
		AuthLimiter:   middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRatePerMinute),
		UserService:   services.NewUserService(repo, tokens),
		EventService:  services.NewEventService(repo, broadcaster, helpers.NewCloudinaryUploader(cld)),
	}
}
