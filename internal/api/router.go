package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/tutorlab/tutor-platform/docs"
	"github.com/tutorlab/tutor-platform/internal/api/handler"
	"github.com/tutorlab/tutor-platform/internal/api/middleware"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
	"github.com/tutorlab/tutor-platform/internal/core/service"
	redisdb "github.com/tutorlab/tutor-platform/internal/infrastructure/db/redis"
)

// Deps carries everything the router needs to assemble the handler chain.
// The account repository and the reconciler are built in main because the
// reconciler's lifecycle is tied to the process context.
type Deps struct {
	Log          zerolog.Logger
	JWTSecret    string
	ContextTurns int
	DB           *mongo.Database
	Redis        *redis.Client
	Accounts     ports.AccountRepository
	Completer    ports.Completer
	Reconciler   ports.CreditReconciler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("tutor"))

	// --- Services ---
	accountService := service.NewAccountService(deps.Accounts, deps.JWTSecret, 24*time.Hour)
	ledger := service.NewTokenLedger(deps.Accounts, deps.Log)
	transcripts := service.NewTranscriptManager(deps.Accounts, deps.Log)
	tutorService := service.NewTutorService(
		deps.Accounts, ledger, transcripts, deps.Completer, deps.Reconciler, deps.ContextTurns, deps.Log,
	)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(accountService)
	profileHandler := handler.NewProfileHandler(accountService)
	tutorHandler := handler.NewTutorHandler(tutorService, redisdb.NewIdempotencyGuard(deps.Redis))
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/profile", profileHandler.Get)
	v1.PUT("/profile/preferences", profileHandler.UpdatePreferences)
	v1.PUT("/profile/subjects", profileHandler.UpdateSubjects)
	v1.POST("/tutor/ask", tutorHandler.Ask)
	v1.GET("/tutor/history", tutorHandler.History)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
