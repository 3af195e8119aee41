package main

import (
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pelusa-v/pelusa-chat/internal/chat"
	"github.com/pelusa-v/pelusa-chat/internal/config"
	"github.com/pelusa-v/pelusa-chat/internal/handlers"
	"github.com/pelusa-v/pelusa-chat/internal/logging"
	"github.com/pelusa-v/pelusa-chat/internal/store"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:          "pelusa-chat",
	Short:        "Real-time chat server with rooms, private channels and moderation",
	SilenceUsage: true,
	RunE:         serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	RunE:  serve,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("addr", "", "listen address")
	flags.String("env", "", "environment (development|production)")
	flags.String("db-path", "", "SQLite database file")
	flags.String("log-level", "", "log level")

	_ = v.BindPFlag(config.KeyAddr, flags.Lookup("addr"))
	_ = v.BindPFlag(config.KeyEnv, flags.Lookup("env"))
	_ = v.BindPFlag(config.KeyDBPath, flags.Lookup("db-path"))
	_ = v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.IsDevelopment(), cfg.LogLevel)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	history := store.NewHistory(db)
	rooms := store.NewRooms(db)

	manager := chat.NewManager(chat.Options{
		History:        history,
		Directory:      rooms,
		Profiles:       store.NewProfiles(db),
		Logger:         logger,
		MaxMessageSize: cfg.MaxMessageSize,
		WriterQueue:    cfg.WriterQueue,
	})
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		manager.Start(loopCtx)
	}()

	h := handlers.NewChatHandler(handlers.Deps{
		Manager:      manager,
		Rooms:        rooms,
		History:      history,
		DB:           db,
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
		SendBuffer:   cfg.SendBuffer,
	})
	app := handlers.NewApp(h, logger)

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("chat server listening")
		if err := app.Listen(cfg.Addr); err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// operations run concurrently, so the steps are chained here:
			// HTTP drains first, then the chat loop stops and flushes
			// history, and the database closes last
			"chat-server": func(ctx context.Context) error {
				if err := app.ShutdownWithContext(ctx); err != nil {
					logger.Error().Err(err).Msg("http shutdown failed")
				}
				stopLoop()
				select {
				case <-loopDone:
				case <-ctx.Done():
					return ctx.Err()
				}
				return store.Close(db)
			},
		},
	)

	code := <-wait
	logger.Info().Int("exit_code", code).Msg("chat server exited")
	if code != 0 {
		return fmt.Errorf("shutdown finished with code %d", code)
	}
	return nil
}
