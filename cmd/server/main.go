package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/linemk/inventory-api/internal/app"
	"github.com/linemk/inventory-api/internal/app/handlers"
	"github.com/linemk/inventory-api/internal/auth"
	"github.com/linemk/inventory-api/internal/auth/authmiddleware"
	"github.com/linemk/inventory-api/internal/config"
	"github.com/linemk/inventory-api/internal/lib/logger"
	"github.com/linemk/inventory-api/internal/lib/logger/handlers/urllog"
	"github.com/linemk/inventory-api/internal/service"
	"github.com/linemk/inventory-api/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// .env подхватывается для локального запуска; в остальных окружениях его может не быть
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	// менеджер токенов собирается явно из конфига — никакого глобального секрета
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	if err != nil {
		log.Error("failed to create token manager", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to create token manager"))
	}

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, tokens)
	productService := service.NewProductService(application.Logger, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo)

	// эндпоинты регистрации и аутентификации
	router.Post("/api/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth", handlers.LoginHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		r.Use(authmiddleware.New(tokens))
		// каталог товаров
		r.Post("/api/products", handlers.CreateProductHandler(application.Logger, productService))
		r.Get("/api/products", handlers.ListProductsHandler(application.Logger, productService))
		// заказы: оформление, просмотр, отмена
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.ListOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{orderID}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Delete("/api/orders/{orderID}", handlers.CancelOrderHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
