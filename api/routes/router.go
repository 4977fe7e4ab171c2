package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ticketforge/internal/catalog"
	"ticketforge/internal/issuance"
	"ticketforge/internal/listings"
	"ticketforge/internal/pricing"
	"ticketforge/internal/shared/config"
	"ticketforge/internal/shared/database"
	"ticketforge/internal/shared/middleware"
	"ticketforge/internal/shared/utils/response"
	"ticketforge/internal/signer"
	"ticketforge/internal/verification"
	"ticketforge/pkg/cache"
	"ticketforge/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	mw     *middleware.Middleware

	issuanceService issuance.Service
	listingService  listings.Service

	verificationProducer *verification.Producer
	verificationConsumer *verification.Consumer
	catalogNotifier      *catalog.Notifier
}

// NewRouter wires the full dependency graph: repositories, the signature
// authority, the price oracle adapter, both domain services and the Kafka
// transports.
func NewRouter(cfg *config.Config, db *database.DB) (*Router, error) {
	r := &Router{
		config: cfg,
		db:     db,
		mw:     middleware.New(cfg),
	}

	authority, err := signer.NewAuthority(cfg.Signer.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load voucher signer key: %w", err)
	}

	// Pricing
	pricingRepo := pricing.NewRepository(db.PostgreSQL)
	feed := pricing.NewHTTPFeed(cfg.Pricing.FeedTimeout)
	adapter := pricing.NewAdapter(pricingRepo, feed, cfg.Pricing.SlippageBps)
	adapter.SetCacheService(cache.NewService(db.Redis), cfg.Redis.QuoteCacheTTL)

	// Issuance
	issuanceRepo := issuance.NewRepository(db.PostgreSQL)
	r.issuanceService = issuance.NewService(issuanceRepo, authority, adapter, adapter, cfg)
	if err := issuance.EnsureSettings(context.Background(), issuanceRepo, cfg); err != nil {
		return nil, fmt.Errorf("failed to seed ledger settings: %w", err)
	}

	// Listings + verification transport
	var dispatcher listings.VerificationDispatcher = noopDispatcher{}
	if cfg.Kafka.Enabled {
		producer, err := verification.NewProducer(&verification.ProducerConfig{
			Brokers:          cfg.Kafka.Brokers,
			RequestTopic:     cfg.Kafka.OracleRequestTopic,
			RetryMax:         3,
			TimeoutMs:        10000,
			RequiredAcks:     sarama.WaitForAll,
			CompressionType:  sarama.CompressionSnappy,
			IdempotentWrites: true,
		})
		if err != nil {
			return nil, err
		}
		r.verificationProducer = producer
		dispatcher = producer
	}

	listingRepo := listings.NewRepository(db.PostgreSQL)
	r.listingService = listings.NewService(listingRepo, r.issuanceService, dispatcher)
	if err := listings.EnsureSettings(context.Background(), listingRepo, cfg); err != nil {
		return nil, fmt.Errorf("failed to seed registry settings: %w", err)
	}

	if cfg.Kafka.Enabled {
		consumer, err := verification.NewConsumer(&verification.ConsumerConfig{
			Brokers:          cfg.Kafka.Brokers,
			GroupID:          cfg.Kafka.ConsumerGroupID,
			ResultTopic:      cfg.Kafka.OracleResultTopic,
			SessionTimeoutMs: 30000,
			HeartbeatMs:      3000,
			OffsetOldest:     true,
		}, r.listingService)
		if err != nil {
			return nil, err
		}
		r.verificationConsumer = consumer

		notifier, err := catalog.NewNotifier(&catalog.NotifierConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.CatalogTopic,
			RetryMax: 3,
		})
		if err != nil {
			return nil, err
		}
		r.catalogNotifier = notifier
		r.issuanceService.SetCatalogNotifier(notifier)
	}

	return r, nil
}

// Start launches the background consumers.
func (r *Router) Start(ctx context.Context) {
	if r.verificationConsumer != nil {
		r.verificationConsumer.Start(ctx)
	}
}

// Shutdown stops the consumers and closes the producers.
func (r *Router) Shutdown() {
	if r.verificationConsumer != nil {
		if err := r.verificationConsumer.Stop(); err != nil {
			logger.GetDefault().Error("Failed to stop verification consumer", "error", err.Error())
		}
	}
	if r.verificationProducer != nil {
		if err := r.verificationProducer.Close(); err != nil {
			logger.GetDefault().Error("Failed to close verification producer", "error", err.Error())
		}
	}
	if r.catalogNotifier != nil {
		if err := r.catalogNotifier.Close(); err != nil {
			logger.GetDefault().Error("Failed to close catalog notifier", "error", err.Error())
		}
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupIssuanceRoutes(api)
		r.setupListingRoutes(api)
		r.setupSystemRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketforge",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketforge",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (r *Router) setupIssuanceRoutes(rg *gin.RouterGroup) {
	controller := issuance.NewController(r.issuanceService, r.config)
	issuance.SetupIssuanceRoutes(rg, controller, r.mw)
}

func (r *Router) setupListingRoutes(rg *gin.RouterGroup) {
	controller := listings.NewController(r.listingService)
	listings.SetupListingRoutes(rg, controller, r.mw)
}

// setupSystemRoutes exposes the upgrader-only deployment surface.
func (r *Router) setupSystemRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/admin/system")
	system.Use(r.mw.JWTAuth(), r.mw.RequireRoles(middleware.RoleUpgrader))
	{
		system.GET("/info", func(c *gin.Context) {
			response.Success(c, http.StatusOK, "System info", gin.H{
				"service":     "ticketforge",
				"api_version": r.config.APIVersion,
				"context_id":  r.config.Signer.ContextID,
				"kafka":       r.config.Kafka.Enabled,
			})
		})
	}
}

// noopDispatcher stands in when Kafka is disabled; results then arrive only
// through the HTTP oracle callback.
type noopDispatcher struct{}

func (noopDispatcher) RequestVerification(ctx context.Context, requestID, ticketID uuid.UUID) error {
	logger.GetDefault().Warn("Verification dispatch skipped, Kafka disabled",
		"request_id", requestID.String(),
		"ticket_id", ticketID.String(),
	)
	return nil
}
