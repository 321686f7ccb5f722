// cmd/rummy/main.go
package main

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jason-s-yu/rummy/internal/auth"
	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/jason-s-yu/rummy/internal/config"
	"github.com/jason-s-yu/rummy/internal/database"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/jason-s-yu/rummy/internal/protocol"
	"github.com/jason-s-yu/rummy/internal/session"
	"github.com/sirupsen/logrus"
)

var flags Flags

type Flags struct {
	verbose bool
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			flags.verbose = true
		}
	}

	cfg, err := config.Load()
	logger := logrus.New()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if flags.verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Debug("Verbose mode enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	self, err := identify(cfg)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	store, closeStore, err := openStore(ctx, cfg, self)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer closeStore()

	adapter := protocol.NewWSAdapter(protocol.WSOptions{
		URL:    cfg.ServerURL,
		Token:  cfg.Token,
		Logger: logger,
	})
	defer adapter.Close()

	ctrl := session.NewController(adapter, store, session.Options{
		Self:             self,
		DisplayName:      cfg.PlayerName,
		ReconnectTimeout: cfg.ReconnectTimeout,
		ReconnectDelay:   cfg.ReconnectDelay,
		Logger:           logger,
	})

	errc := make(chan error, 1)
	go func() {
		errc <- ctrl.Run(ctx)
	}()
	go printNotices(ctx, ctrl)

	if cfg.RoomID != "" {
		if err := ctrl.Open(ctx, requestFromConfig(cfg, cfg.RoomID)); err != nil {
			logger.Warnf("open: %v", err)
		}
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	fmt.Println(helpText)
	for {
		select {
		case err := <-errc:
			if err != nil && err != context.Canceled {
				logger.Errorf("session loop stopped: %v", err)
			}
			return
		case <-ctx.Done():
			logger.Info("terminating")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := parseCommand(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if cmd.kind == cmdQuit {
				return
			}
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := execute(opCtx, ctrl, cfg, cmd); err != nil {
				fmt.Println(err)
			}
			cancel()
		}
	}
}

// identify reads the player id out of the auth token, verifying it when a key is configured.
func identify(cfg config.Config) (models.PlayerID, error) {
	if cfg.Token == "" {
		return models.PlayerID(cfg.PlayerName), nil
	}
	var pub ed25519.PublicKey
	if cfg.JWTPublicKeyPath != "" {
		k, err := auth.LoadPublicKey(cfg.JWTPublicKeyPath)
		if err != nil {
			return "", err
		}
		pub = k
	}
	return auth.PlayerIDFromToken(cfg.Token, pub)
}

func openStore(ctx context.Context, cfg config.Config, self models.PlayerID) (session.DescriptorStore, func(), error) {
	switch cfg.Store {
	case config.StoreRedis:
		if err := cache.ConnectRedis(); err != nil {
			return nil, nil, err
		}
		return cache.NewRedisStore(cache.Rdb, self, cache.DefaultTTL), func() { cache.Rdb.Close() }, nil
	case config.StorePostgres:
		if err := database.ConnectDB(ctx); err != nil {
			return nil, nil, err
		}
		return database.NewPGStore(database.DB, self), database.DB.Close, nil
	default:
		return session.NewFileStore(cfg.StorePath), func() {}, nil
	}
}

func requestFromConfig(cfg config.Config, roomID string) session.JoinRequest {
	return session.JoinRequest{
		RoomID:     roomID,
		GameType:   cfg.GameType,
		MaxPlayers: cfg.MaxPlayers,
		PoolLimit:  cfg.PoolLimit,
		EntryFee:   cfg.EntryFee,
		IsCreator:  cfg.IsCreator,
	}
}

func printNotices(ctx context.Context, ctrl *session.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ctrl.Notices():
			prefix := "*"
			if n.Kind == session.NoticeError {
				prefix = "!"
			}
			fmt.Printf("%s %s\n", prefix, n.Message)
		}
	}
}
