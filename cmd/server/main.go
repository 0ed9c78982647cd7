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
	"github.com/linemk/farm2go/internal/app"
	"github.com/linemk/farm2go/internal/app/handlers"
	"github.com/linemk/farm2go/internal/config"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/lib/logger"
	"github.com/linemk/farm2go/internal/lib/logger/handlers/urllog"
	"github.com/linemk/farm2go/internal/notify"
	"github.com/linemk/farm2go/internal/service"
	"github.com/linemk/farm2go/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД/redis
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

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
	saleRepo := storage.NewSaleRepository(application.DB)
	notifRepo := storage.NewNotificationRepository(application.DB)

	notifier := notify.New(application.Logger, notifRepo, application.Redis)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	productService := service.NewProductService(application.Logger, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, orderRepo, productRepo, userRepo, notifier)
	salesService := service.NewSalesService(application.Logger, saleRepo)
	notificationService := service.NewNotificationService(application.Logger, notifRepo)

	// эндпоинты аутентификации
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// витрина и склад фермера
		r.Get("/api/products", handlers.MarketplaceHandler(application.Logger, productService))
		r.Post("/api/products", handlers.CreateProductHandler(application.Logger, productService))
		r.Get("/api/farmer/products", handlers.FarmerProductsHandler(application.Logger, productService))
		// заказы: оформление, списки, смена статуса
		r.Post("/api/orders", handlers.CheckoutHandler(application.Logger, orderService))
		r.Get("/api/orders", handlers.OrdersHandler(application.Logger, orderService))
		r.Patch("/api/orders/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))
		// история продаж фермера
		r.Get("/api/farmer/sales", handlers.SalesHandler(application.Logger, salesService))
		// уведомления пользователя
		r.Get("/api/notifications", handlers.NotificationsHandler(application.Logger, notificationService))
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
