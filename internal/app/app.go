package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "photovault/internal/app/http"
	"photovault/internal/config"
	"photovault/internal/repository"
	personsvc "photovault/internal/services/person_service"
	photosvc "photovault/internal/services/photo_service"
	tokensvc "photovault/internal/services/token_service"
	usersvc "photovault/internal/services/user_service"
	"photovault/internal/storage/filestorage"
	"photovault/internal/storage/postgresql"
	redisstorage "photovault/internal/storage/redis"
	httprouters "photovault/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server

	storage *postgresql.Storage
	redis   *redisstorage.Client
}

func New(log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	ctx := context.Background()

	st, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := st.Bootstrap(ctx); err != nil {
		st.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fs, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir)
	if err != nil {
		st.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redisstorage.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := rdb.HealthCheck(ctx); err != nil {
		log.Warn("redis is unreachable, remember-me tokens will not survive validation", slog.String("addr", cfg.Redis.RedisAddr))
	}

	userRepo := repository.NewUserRepository(st.Pool())
	photoRepo := repository.NewPhotoRepository(st.Pool())
	personRepo := repository.NewPersonRepository(st.Pool())
	tokenRepo := repository.NewTokenRepository(rdb.Client)

	userService := usersvc.NewUserService(log, userRepo)
	tokenService := tokensvc.NewTokenService(tokenRepo, cfg.Session.Secret, cfg.Session.RememberTTL)
	photoService := photosvc.NewPhotoService(
		log,
		photoRepo,
		userRepo,
		fs,
		uint64(cfg.Catalog.PerPage),
		uint64(cfg.Catalog.RecentLimit),
		cfg.Catalog.StorageQuota,
	)
	personService := personsvc.NewPersonService(log, personRepo, photoRepo)

	routers := httprouters.NewRouter(
		log,
		userService,
		tokenService,
		photoService,
		personService,
		cfg.FileStorage.BaseDir,
		cfg.Session.RememberTTL,
	)

	server := httpapp.New(log, cfg, routers)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		storage:    st,
		redis:      rdb,
	}, nil
}

// Stop closes everything the app opened, in reverse order of New.
func (a *App) Stop() error {
	if err := a.HTTPServer.Stop(); err != nil {
		return err
	}

	a.storage.Stop()

	return a.redis.Close()
}
