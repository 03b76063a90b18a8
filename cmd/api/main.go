package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	config "github.com/anjiri1684/classroom/configs"
	"github.com/anjiri1684/classroom/database"
	"github.com/anjiri1684/classroom/handlers"
	"github.com/anjiri1684/classroom/jobs"
	"github.com/anjiri1684/classroom/middleware"
	"github.com/anjiri1684/classroom/monitoring"
	"github.com/anjiri1684/classroom/notifications"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/routes"
	"github.com/anjiri1684/classroom/services"
	"github.com/anjiri1684/classroom/utils"
	"github.com/anjiri1684/classroom/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func logLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	}
	return log.LevelInfo
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Failed to load configuration: %v", err)
	}
	log.SetLevel(logLevel(cfg.LogLevel))

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		log.Fatalf("🔥 Failed to seed admin: %v", err)
	}

	reporter := monitoring.New(cfg.RollbarToken, cfg.Env, version)
	defer reporter.Close()

	users := repository.NewUserRepository(db)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("🔥 Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		users = repository.NewCachedUserRepository(users, rdb, cfg.UserCacheTTL)
		log.Info("✅ User cache enabled")
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	exams := services.NewExamService(repository.NewExamRepository(db), repository.NewAttemptRepository(db))

	hub := websocket.NewHub()
	exams.AddListener(hub)

	mailer := notifications.NewMailer(cfg.SendgridAPIKey, cfg.EmailSenderName, cfg.EmailSender)
	gradeMailer := notifications.NewGradeMailer(mailer, users)
	exams.AddListener(gradeMailer)

	var (
		certificates *services.CertificateService
		uploads      handlers.UploadSigner
	)
	if cfg.CloudinaryURL != "" {
		store, err := services.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			log.Fatalf("🔥 Failed to initialize Cloudinary: %v", err)
		}
		uploads = store
		if cfg.CertificatesEnabled {
			certificates = services.NewCertificateService(db, services.ChromeRenderer{}, store)
			exams.AddListener(certificates)
			log.Info("✅ Certificates enabled")
		}
	}

	scheduler, err := jobs.NewScheduler(jobs.Job{
		Name: "finalize-expired-attempts",
		Spec: cfg.ExpirySweepSpec,
		Run:  jobs.FinalizeExpiredAttempts(exams),
	})
	if err != nil {
		log.Fatalf("🔥 Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	validator := utils.NewValidator()
	h := handlers.New(handlers.Deps{
		DB:           db,
		Users:        users,
		Tokens:       tokens,
		Exams:        exams,
		Certificates: certificates,
		Uploads:      uploads,
		Mailer:       mailer,
		Validator:    validator,
	})

	app := fiber.New(fiber.Config{
		AppName:      "Classroom",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: handlers.NewErrorHandler(validator, reporter),
	})
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, X-Request-ID",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app, h, tokens, middleware.NewIdentityResolver(tokens, users), hub)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down...")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorw("shutdown", "error", err)
		}
	}()

	log.Infof("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}

	// let background mail and certificate work finish
	done := make(chan struct{})
	go func() {
		h.Wait()
		gradeMailer.Wait()
		if certificates != nil {
			certificates.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn("background work still running at exit")
	}
}
