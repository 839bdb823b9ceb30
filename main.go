package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"community-service/internal/auth"
	"community-service/internal/config"
	"community-service/internal/db"
	grpcserver "community-service/internal/grpc"
	"community-service/internal/handlers"
	"community-service/internal/jobs"
	"community-service/internal/landing"
	"community-service/internal/language"
	"community-service/internal/localcache"
	"community-service/internal/logger"
	"community-service/internal/middleware"
	"community-service/internal/observability"
	"community-service/internal/rabbitmq"
	"community-service/internal/realtime"
	"community-service/internal/repositories"
	"community-service/internal/screens"
	"community-service/internal/storage"
	"community-service/internal/telemetry"
	"community-service/internal/ws"
)

const serviceName = "community-service"

func main() {
	fmt.Println(color.CyanString("community-service"))
	fmt.Printf("%s\n", color.New(color.FgHiCyan).Add(color.Bold).Sprintf("Questions, answers and groups, kept live"))
	color.HiBlack("=====================================================\n")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load settings: %v\n", err)
		os.Exit(1)
	}
	logger.Configure(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.Server.Environment, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracer")
	}

	database, err := db.Connect(db.Options{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		NotifyChannel:   cfg.Database.NotifyChannel,
	}, logger.Component("db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	questionRepo := repositories.NewQuestionRepo(database)
	answerRepo := repositories.NewAnswerRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	postRepo := repositories.NewPostRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	sessionCache, err := localcache.New(10_000)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session cache")
	}
	provider := auth.NewProvider(userRepo, sessionCache, auth.Config{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		SessionTTL: cfg.Auth.SessionTTL,
		CacheTTL:   cfg.Auth.CacheTTL,
	}, logger.Component("auth"))

	blobs, err := storage.NewLocal(cfg.Storage.Root, cfg.Storage.BaseURL, logger.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open blob storage")
	}

	bus := realtime.NewBus(logger.Component("realtime"))
	listener := realtime.NewPGListener(cfg.Database.DSN, cfg.Database.NotifyChannel, bus, logger.Component("pg-listener"))
	go listener.Run(ctx)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Component("rabbitmq"))
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Str("reason", rabbitmq.PublisherNoopReason(publisher)).Msg("event publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, "audit.community", serviceName, cfg.Server.Environment, logger.Component("audit"))

	svc := screens.NewService(screens.Deps{
		Questions: questionRepo,
		Answers:   answerRepo,
		Groups:    groupRepo,
		Posts:     postRepo,
		Messages:  groupMessageRepo,
		Profiles:  userRepo,
		Blobs:     blobs,
		Changes:   bus,
		Language:  language.NewDetector(),
		Log:       logger.Component("screens"),
	})

	authHandler := handlers.NewAuthHandler(provider, audit, cfg.Server.Environment == "production")
	questionHandler := handlers.NewQuestionHandler(svc, audit)
	groupHandler := handlers.NewGroupHandler(svc, audit)
	pages, err := landing.NewHandler()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load landing content")
	}
	templates, err := landing.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	hub := ws.NewHub()
	screenWS := ws.NewScreenHandler(hub, svc, logger.Component("ws"))

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(logger.GinMiddleware(logger.Component("http")))
	router.Use(observability.HTTPMetricsMiddleware())
	router.SetHTMLTemplate(templates)

	optionalAuth := middleware.OptionalAuth(provider)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static("/media", blobs.Root())

	router.GET("/", pages.Landing)
	router.GET("/auth", pages.Auth)
	router.POST("/auth/signup", authHandler.SignUp)
	router.POST("/auth/signin", authHandler.SignIn)
	router.POST("/auth/signout", authHandler.SignOut)

	api := router.Group("/api", optionalAuth)
	api.GET("/questions", questionHandler.ListQuestions)
	api.POST("/questions", questionHandler.CreateQuestion)
	api.GET("/questions/:id", questionHandler.GetQuestion)
	api.POST("/questions/:id/answers", questionHandler.CreateAnswer)
	api.POST("/questions/:id/like", questionHandler.ToggleLike)
	api.POST("/questions/:id/answers/:answerId/like", questionHandler.ToggleAnswerLike)
	api.GET("/profile", questionHandler.Profile)

	api.GET("/groups", groupHandler.ListGroups)
	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups/:id", groupHandler.GetGroup)
	api.POST("/groups/:id/join", groupHandler.ToggleMembership)
	api.GET("/groups/:id/posts", groupHandler.ListPosts)
	api.POST("/groups/:id/posts", groupHandler.CreatePost)
	api.POST("/groups/:id/posts/:postId/like", groupHandler.TogglePostLike)
	api.GET("/groups/:id/messages", middleware.RequireAuth(provider), groupHandler.GetGroupMessages)
	api.POST("/groups/:id/messages", groupHandler.PostGroupMessage)

	wsRoutes := router.Group("/ws", optionalAuth)
	wsRoutes.GET("/questions", screenWS.Questions)
	wsRoutes.GET("/questions/:id", screenWS.Question)
	wsRoutes.GET("/groups", screenWS.Groups)
	wsRoutes.GET("/groups/:id", screenWS.Group)
	wsRoutes.GET("/profile", screenWS.Profile)

	handlers.RegisterDebugRoutes(router, audit, bus, cfg.Server.Debug)

	healthServer := grpcserver.NewServer(database.PingContext, 15*time.Second, logger.Component("grpc"))
	go healthServer.Watch(ctx)
	go func() {
		if err := healthServer.Listen(":" + cfg.Server.GRPCPort); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	scheduler, err := jobs.NewScheduler(cfg.Auth.PurgeSchedule, provider, logger.Component("jobs"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	scheduler.Start()

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	healthServer.Stop()
	scheduler.Stop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
}
