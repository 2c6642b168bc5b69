package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"breadshare-client/internal/api"
	"breadshare-client/internal/cache"
	"breadshare-client/internal/config"
	"breadshare-client/internal/handlers"
	"breadshare-client/internal/middleware"
	"breadshare-client/internal/models"
	"breadshare-client/internal/observability"
	"breadshare-client/internal/realtime"
	"breadshare-client/internal/store"
	sy "breadshare-client/internal/sync"
	"breadshare-client/internal/telemetry"
)

const availabilityDebounce = 300 * time.Millisecond

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint, "breadshare-client")
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	sessions, err := store.Open(cfg.Store.Path, cfg.Store.Namespace)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer sessions.Close()
	if err := sessions.ClearExpired(ctx); err != nil {
		log.Printf("store cleanup: %v", err)
	}

	responseCache := cache.New(cfg.Cache.DefaultTTL())

	tokenSource := func(ctx context.Context) string {
		token, err := sessions.Token(ctx)
		if err != nil {
			log.Printf("token lookup failed: %v", err)
			return ""
		}
		return token
	}

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), tokenSource)

	manager := realtime.NewManager(realtime.Options{
		URL:                  cfg.Backend.WSURL,
		Token:                realtime.TokenSource(tokenSource),
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Realtime.ReconnectDelay(),
		MaxReconnectDelay:    cfg.Realtime.MaxReconnectDelay(),
	})
	manager.Initialize()

	publisher := telemetry.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", telemetry.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "breadshare.client.audit", uuid.NewString(), cfg.Telemetry.Environment)

	manager.On(models.EventConnect, func(json.RawMessage) {
		audit.Emit(ctx, telemetry.AuditWSConnect, "", nil)
	})
	manager.On(models.EventDisconnect, func(json.RawMessage) {
		audit.Emit(ctx, telemetry.AuditWSDisconnect, "", nil)
	})
	manager.On(models.EventError, func(payload json.RawMessage) {
		audit.Emit(ctx, telemetry.AuditWSError, string(payload), nil)
	})

	self := models.UserRef{}
	if user, err := sessions.User(ctx); err == nil && user != nil {
		self = *user
	}

	conversations := sy.NewConversationList(client, manager, self)
	conversations.Start()
	defer conversations.Stop()

	notifications := sy.NewNotificationList(client, manager)
	notifications.Start()
	defer notifications.Stop()

	feed := sy.NewPostFeed(client, responseCache, manager, cfg.Cache.DefaultTTL())
	feed.Start()
	defer feed.Stop()

	location := sy.StaticProvider{Position: models.Location{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	}}
	locationPublisher := sy.NewLocationPublisher(manager, location)
	go func() {
		if err := locationPublisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("location publisher stopped: %v", err)
		}
	}()

	checker := sy.NewAvailabilityChecker(client.UsernameAvailable, client.EmailAvailable, availabilityDebounce)
	defer checker.Stop()

	// a persisted session from a previous run reconnects at startup
	if token := tokenSource(ctx); token != "" && !sessions.TokenExpired(ctx) {
		if err := manager.Connect(ctx); err != nil {
			log.Printf("startup connect failed, retrying in background: %v", err)
		}
	}

	sessionHandler := handlers.NewSessionHandler(client, sessions, responseCache, manager, conversations, audit)
	conversationHandler := handlers.NewConversationHandler(client, conversations, manager)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	postHandler := handlers.NewPostHandler(feed, sessions, location, cfg.Location.SearchRadiusKM)
	availabilityHandler := handlers.NewAvailabilityHandler(checker)
	settingsHandler := handlers.NewSettingsHandler(sessions)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("breadshare-client"))
	router.Use(observability.HTTPMetricsMiddleware())

	sessionRequired := middleware.SessionRequired(sessions)

	router.POST("/session", sessionHandler.Login)
	router.POST("/session/register", sessionHandler.Register)
	router.DELETE("/session", sessionRequired, sessionHandler.Logout)

	router.GET("/conversations", sessionRequired, conversationHandler.ListConversations)
	router.GET("/conversations/:id/messages", sessionRequired, conversationHandler.GetMessages)
	router.POST("/conversations/:id/messages", sessionRequired, conversationHandler.PostMessage)
	router.POST("/conversations/:id/read", sessionRequired, conversationHandler.MarkRead)
	router.POST("/conversations/:id/typing", sessionRequired, conversationHandler.Typing)

	router.GET("/notifications", sessionRequired, notificationHandler.ListNotifications)
	router.POST("/notifications/:id/read", sessionRequired, notificationHandler.MarkRead)
	router.POST("/notifications/read-all", sessionRequired, notificationHandler.MarkAllRead)

	router.GET("/posts", sessionRequired, postHandler.ListPosts)
	router.POST("/posts/:id/reserve", sessionRequired, postHandler.ToggleReservation)
	router.GET("/search", sessionRequired, postHandler.Search)
	router.GET("/search/history", sessionRequired, postHandler.SearchHistory)

	router.GET("/availability", availabilityHandler.Check)
	router.GET("/settings", sessionRequired, settingsHandler.GetSettings)
	router.PUT("/settings", sessionRequired, settingsHandler.PutSettings)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "realtime": manager.State().String()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Printf("listening addr=%s", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	manager.Disconnect()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
