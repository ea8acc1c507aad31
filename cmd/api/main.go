// Package main (in api-subfolder) provides launch of the image host HTTP server
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageHost/internal/config"
	"github.com/UnendingLoop/ImageHost/internal/fetcher"
	"github.com/UnendingLoop/ImageHost/internal/mwlogger"
	"github.com/UnendingLoop/ImageHost/internal/service"
	"github.com/UnendingLoop/ImageHost/internal/storage"
	"github.com/UnendingLoop/ImageHost/internal/transport"
	"github.com/dustin/go-humanize"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// инициализировать конфиг/ считать энвы
	cfg, err := config.LoadFromEnv("./.env")
	if err != nil {
		log.Fatalf("Failed to load config: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к хранилищу
	strg, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	// создаем экземпляр сервиса
	svc := service.NewImageService(strg, fetcher.NewHTTPFetcher(cfg.FetchTimeout), service.Options{
		SizeLimit:      cfg.FileSizeLimit,
		UploadsEnabled: cfg.UploadsEnabled,
		MaxDimension:   cfg.MaxImageDimension,
		MaxPixels:      cfg.MaxImagePixels,
		Redirect:       cfg.S3.Redirect,
	})
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc, cfg.RepoURL)
	// сетапим сервер
	engine := ginext.New(cfg.GinMode)
	engine.Use(mwlogger.NewMWLogger())
	transport.RegisterRoutes(engine, handlers, cfg.APIKey)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		zlog.Logger.Info().
			Str("addr", srv.Addr).
			Str("storage", string(cfg.StorageType)).
			Str("size_limit", humanize.IBytes(uint64(cfg.FileSizeLimit))).
			Bool("uploads_enabled", cfg.UploadsEnabled).
			Msg("Server running")
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для грейсфул остановки
	<-ctx.Done()
	shutdown(srv)
	log.Println("Exiting app...")
}

func shutdown(srv *http.Server) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
		return
	}
	log.Println("HTTP-server stopped")
}
