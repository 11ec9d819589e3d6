package di

import (
	"context"
	"fmt"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/handler"
	"github.com/gronit/club-portal/backend-club/internal/repository"
	"github.com/gronit/club-portal/backend-club/internal/service"
	"github.com/gronit/club-portal/pkg/config"
	"github.com/gronit/club-portal/pkg/database"
	"github.com/gronit/club-portal/pkg/kafka"
	"github.com/gronit/club-portal/pkg/media"
	pkgredis "github.com/gronit/club-portal/pkg/redis"
)

// Container holds all dependencies for the club service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Mongo    *database.MongoDB
	Redis    *pkgredis.Client
	Producer *kafka.Producer

	// Repositories
	EventRepo  repository.EventRepository
	BlogRepo   repository.BlogRepository
	MemberRepo repository.MemberRepository

	// Services
	EventService  service.EventService
	BlogService   service.BlogService
	MemberService service.MemberService
	AdminService  service.AdminService

	// Handlers
	HealthHandler *handler.HealthHandler
	EventHandler  *handler.EventHandler
	BlogHandler   *handler.BlogHandler
	MemberHandler *handler.MemberHandler
	AdminHandler  *handler.AdminHandler
}

// ContainerConfig contains configuration for building the container.
// Redis and Producer are optional.
type ContainerConfig struct {
	ServiceName string
	Cache       config.CacheConfig
	Kafka       config.KafkaConfig

	DB        *database.PostgresDB
	Mongo     *database.MongoDB
	Redis     *pkgredis.Client
	Producer  *kafka.Producer
	Images    media.ImageStore
	Directory service.UserDirectory
	Clock     clock.Clock
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	c := &Container{
		DB:       cfg.DB,
		Mongo:    cfg.Mongo,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	// Initialize repositories
	var eventRepo repository.EventRepository = repository.NewPostgresEventRepository(c.DB.Pool())
	if c.Redis != nil {
		eventRepo = repository.NewCachedEventRepository(
			eventRepo,
			repository.NewRedisEventCache(c.Redis),
			cfg.Cache.KeyPrefix,
			cfg.Cache.EventTTL,
		)
	}
	c.EventRepo = eventRepo

	blogRepo := repository.NewMongoBlogRepository(c.Mongo.Database())
	if err := blogRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("blog indexes: %w", err)
	}
	c.BlogRepo = blogRepo

	memberRepo := repository.NewMongoMemberRepository(c.Mongo.Database())
	if err := memberRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("member indexes: %w", err)
	}
	c.MemberRepo = memberRepo

	var publisher service.ContentPublisher = service.NoopContentPublisher{}
	if c.Producer != nil {
		publisher = service.NewKafkaContentPublisher(c.Producer, cfg.Kafka.ContentTopic)
	}

	// Initialize services
	c.EventService = service.NewEventService(c.EventRepo, cfg.Images, publisher, cfg.Clock)
	c.BlogService = service.NewBlogService(c.BlogRepo, cfg.Images, publisher, cfg.Clock)
	c.MemberService = service.NewMemberService(c.MemberRepo, cfg.Images, publisher, cfg.Clock)
	c.AdminService = service.NewAdminService(cfg.Directory)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(cfg.ServiceName, c.healthChecks())
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.BlogHandler = handler.NewBlogHandler(c.BlogService)
	c.MemberHandler = handler.NewMemberHandler(c.MemberService)
	c.AdminHandler = handler.NewAdminHandler(c.AdminService)

	return c, nil
}

// healthChecks only lists dependencies that are actually connected, so no
// typed nil pointer ends up behind the interface.
func (c *Container) healthChecks() map[string]handler.HealthChecker {
	checks := map[string]handler.HealthChecker{
		"postgres": c.DB,
		"mongodb":  c.Mongo,
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	if c.Producer != nil {
		checks["kafka"] = c.Producer
	}
	return checks
}
