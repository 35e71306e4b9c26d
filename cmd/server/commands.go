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

	"saladoverflow/internal/cache"
	"saladoverflow/internal/db"
	"saladoverflow/internal/log"
	"saladoverflow/internal/router"
	"saladoverflow/internal/services"
	"saladoverflow/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		return db.Migrate(gdb)
	},
}

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recompute every derived counter from the source tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store, closeStore := openCache()
		defer closeStore()

		report, err := services.NewMaintenanceService(gdb, store).Recount(cmd.Context())
		if err != nil {
			return err
		}
		log.Info.Printf("recount done: posts=%d comments=%d tags=%d users=%d accepted_repaired=%d",
			report.Posts, report.Comments, report.Tags, report.Users, report.AcceptedRepaired)
		return nil
	},
}

// openCache prefers Redis when REDIS_URL is set and falls back to the
// in-process LRU.
func openCache() (cache.Store, func()) {
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(cfg.RedisURL)
		if err == nil {
			log.Info.Println("Using Redis cache")
			return r, func() { _ = r.Close() }
		}
		log.Warn.Printf("Redis unavailable, falling back to in-memory cache: %v", err)
	}
	lru, err := cache.NewLRU(cfg.CacheSize)
	if err != nil {
		log.Warn.Printf("Cache disabled: %v", err)
		return nil, func() {}
	}
	return lru, func() {}
}

var disableCmd = &cobra.Command{
	Use:   "disable <user-id>",
	Short: "Disable a user account; disabled users can no longer log in or post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := utils.ParseID(args[0])
		if !ok {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		gdb, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		store, closeStore := openCache()
		defer closeStore()

		if err := services.NewUserService(gdb, store).Disable(cmd.Context(), id); err != nil {
			return err
		}
		log.Info.Printf("user %d disabled", id)
		return nil
	},
}

func runServe(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)
	services.CacheTTL = cfg.CacheTTL

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	store, closeStore := openCache()
	defer closeStore()

	return serve(ctx, gdb, store)
}

func serve(ctx context.Context, gdb *gorm.DB, store cache.Store) error {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.New(&cfg, gdb, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info.Printf("SaladOverflow server starting on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
