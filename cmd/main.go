package main

import (
	"context"
	"log"
	"media-vault-server/config"
	_ "media-vault-server/docs"
	"media-vault-server/internal/handler"
	"media-vault-server/internal/notifier"
	"media-vault-server/internal/repository"
	"media-vault-server/internal/security"
	"media-vault-server/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Media-vault-server
// @version 1.0
// @description REST API личного медиа-хранилища: папки, медиа-файлы, корзина, совместный доступ

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	ttl := time.Duration(cfg.TTL.S3AndRedis) * time.Second

	userRepo := repository.NewUserRepository(db)
	jwtRepo := repository.NewJWTRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	collabRepo := repository.NewCollaboratorRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, ttl)

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		log.Fatalf("Ошибка создания S3 сервиса: %v", err)
	}

	webhookNotifier := notifier.NewWebhookNotifier(&cfg.Webhook)
	jwtService := security.NewJWTService(&cfg.JWT)

	userService := service.NewUserService(userRepo, webhookNotifier, cfg)
	authService := service.NewAuthenticationService(jwtRepo, cfg, jwtService, userRepo, webhookNotifier)
	folderService := service.NewFolderService(folderRepo, mediaRepo, collabRepo, userRepo, cacheRepo, s3Service, jwtService, ttl)
	mediaService := service.NewMediaService(mediaRepo, folderRepo, collabRepo, s3Service, ttl)

	authHandler := handler.NewAuthenticationHandler(authService, jwtService, jwtRepo)
	userHandler := handler.NewUserHandler(userService)
	folderHandler := handler.NewFolderHandler(folderService)
	mediaHandler := handler.NewMediaHandler(mediaService)

	router.Use(config.DBMiddleware(db))
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, userHandler, jwtService, jwtRepo, cfg)
	setupContentRoutes(router, folderHandler, mediaHandler, jwtService, jwtRepo, cfg)

	runServer(ctx, srv)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, uh *handler.UserHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService))
			r.Get("/me", uh.GetCurrentUser)
			r.Post("/refresh", h.RefreshToken)
		})
		r.Group(func(r chi.Router) {
			r.Post("/register", uh.RegisterUser)
			r.Get("/verify-email", uh.VerifyEmail)
			r.Post("/forgot-password", uh.ForgotPassword)
			r.Post("/reset-password", uh.ResetPassword)
			r.Post("/login", h.Login)
			r.Delete("/{token}", h.Logout)
		})
	})
}

func setupContentRoutes(r chi.Router, fh *handler.FolderHandler, mh *handler.MediaHandler, jwtService *security.JWTService, jwtRepo *repository.JWTRepository, cfg *config.AppConfig) {
	r.Route("/api/content", func(r chi.Router) {
		r.Use(security.JWTMiddleware([]byte(cfg.JWT.SecretKey), jwtRepo, jwtService))

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", fh.CreateFolder)
			r.Get("/nav", fh.ListNavFolders)

			r.Route("/{folder_id}", func(r chi.Router) {
				r.Get("/", fh.GetContent)
				r.Put("/", fh.UpdateFolder)
				r.Post("/delete", fh.DeleteFolder)
				r.Post("/restore", fh.RestoreFolder)
				r.Post("/collaborators", fh.AddCollaborator)
				r.Delete("/collaborators/{collaborator_id}", fh.RemoveCollaborator)
			})
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/upload", mh.UploadMedia)

			r.Route("/{media_id}", func(r chi.Router) {
				r.Put("/", mh.UpdateMedia)
				r.Put("/favorite", mh.ToggleFavorite)
				r.Post("/delete", mh.DeleteMedia)
				r.Post("/restore", mh.RestoreMedia)
				r.Delete("/permanent", mh.DeleteMediaPermanently)
			})
		})
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
