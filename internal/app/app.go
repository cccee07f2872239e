package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "kediacrm/docs"
	"kediacrm/internal/config"
	"kediacrm/internal/handlers"
	"kediacrm/internal/logger"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
	"kediacrm/internal/pdf"
	"kediacrm/internal/repositories"
	"kediacrm/internal/routes"
	"kediacrm/internal/services"
)

// Stores bundles the two collections and how to release them.
type Stores struct {
	Tasks repositories.TaskRepository
	Users repositories.UserRepository
	Close func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Repository.Type {
	case "inmemory":
		logger.Warn("[app] using in-memory repositories, data is lost on restart")
		return &Stores{
			Tasks: repositories.NewTaskStorage(),
			Users: repositories.NewUserStorage(),
			Close: func(context.Context) error { return nil },
		}, nil
	case "mongo":
		store, err := repositories.NewMongoStore(ctx, cfg.Database.URI, cfg.Database.Name, cfg.Database.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("[app] connected to MongoDB", zap.String("database", cfg.Database.Name))
		return &Stores{Tasks: store.Tasks(), Users: store.Users(), Close: store.Disconnect}, nil
	default:
		return nil, fmt.Errorf("unknown repository type %q", cfg.Repository.Type)
	}
}

// Services are the collaborators that talk to the outside world; nil fields are disabled.
type Services struct {
	Email    services.EmailService
	Notifier services.TaskNotifier
}

func outboundServices(cfg *config.Config) Services {
	var out Services
	if cfg.Email.SMTPHost != "" {
		out.Email = services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
	}
	tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
	if err != nil {
		// notifications are optional, the API works without them
		logger.Error("[app] telegram disabled", err)
	} else {
		out.Notifier = tg
	}
	return out
}

// NewEngine builds the gin engine with every route mounted.
func NewEngine(cfg *config.Config, stores *Stores, out Services) (*gin.Engine, error) {
	authService, err := services.NewAuthService(stores.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	userService := services.NewUserService(stores.Users, out.Email, authService)
	taskService := services.NewTaskService(stores.Tasks, stores.Users, out.Notifier)
	pdfGen := pdf.NewReportGenerator(cfg.Files.FontPath)

	authHandler := handlers.NewAuthHandler(userService, authService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService, pdfGen)
	systemHandler := handlers.NewSystemHandler(stores.Tasks, stores.Users)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authService, stores.Users, authHandler, userHandler, taskHandler, systemHandler)
	return router, nil
}

// bootstrapAdmin creates the configured admin when there are no users yet.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users repositories.UserRepository, out Services) error {
	b := cfg.Bootstrap
	if b.AdminEmail == "" || b.AdminPassword == "" {
		return nil
	}
	existing, err := users.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	authService, err := services.NewAuthService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	admin, err := services.NewUserService(users, out.Email, authService).Create(ctx, models.CreateUserRequest{
		Name:     b.AdminName,
		Email:    b.AdminEmail,
		Password: b.AdminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info("[app] bootstrap admin created", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	stores, err := openStores(connectCtx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			logger.Error("[app] close store", err)
		}
	}()

	out := outboundServices(cfg)
	if err := bootstrapAdmin(ctx, cfg, stores.Users, out); err != nil {
		return err
	}

	router, err := NewEngine(cfg, stores, out)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[app] server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("[app] received terminate, graceful shutdown")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("[app] server stopped")
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
