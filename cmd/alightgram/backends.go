package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"alightgram/config"
	"alightgram/media"
	natsClient "alightgram/nats"
	"alightgram/publisher"
	"alightgram/realtime"
	"alightgram/repository"
	"alightgram/repository/firestore"
	"alightgram/repository/memory"
	"alightgram/tags"
)

type documents struct {
	users       repository.UserRepository
	follows     repository.FollowRepository
	projects    repository.ProjectRepository
	credentials repository.CredentialRepository
	close       func()
}

func openDocuments(ctx context.Context, cfg *config.ServiceConfig, logger *logrus.Logger) (*documents, error) {
	switch cfg.DocumentStore {
	case config.StorePostgres:
		conn, err := connectDatabase(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info("Connected to postgres document store")
		return &documents{
			users:       repository.NewUserRepository(conn.DB),
			follows:     repository.NewFollowRepository(conn.DB),
			projects:    repository.NewProjectRepository(conn.DB),
			credentials: repository.NewCredentialRepository(conn.DB),
			close:       func() { conn.Close() },
		}, nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		logger.WithField("project_id", cfg.FirestoreProjectID).Info("Connected to firestore document store")
		return &documents{
			users:       firestore.NewUserRepository(client),
			follows:     firestore.NewFollowRepository(client),
			projects:    firestore.NewProjectRepository(client),
			credentials: firestore.NewCredentialRepository(client),
			close:       func() { client.Close() },
		}, nil

	default:
		store := memory.NewStore()
		logger.Warn("Using in-memory document store, data is lost on restart")
		return &documents{
			users:       store.Users(),
			follows:     store.Follows(),
			projects:    store.Projects(),
			credentials: store.Credentials(),
			close:       func() {},
		}, nil
	}
}

// openRealtime returns the realtime store and the revocation list, which
// shares the store's Redis when there is one.
func openRealtime(ctx context.Context, cfg *config.ServiceConfig, logger *logrus.Logger) (realtime.Store, repository.TokenRevocations, error) {
	if cfg.RealtimeStore == config.StoreMemory {
		logger.Warn("Using in-memory realtime store, presence is local to this instance")
		return realtime.NewMemoryStore(), memory.NewTokenRevocations(), nil
	}

	redisCfg := config.LoadRedisConfig()
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		PoolSize: 10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.WithField("addr", redisCfg.Addr).Info("Connected to redis realtime store")

	return realtime.NewRedisStore(client, logger), repository.NewRedisTokenRevocations(client), nil
}

// openMediaHost returns nil when the selected host has no credentials;
// uploads then fail with a clear error instead of the whole service.
func openMediaHost(cfg *config.ServiceConfig, logger *logrus.Logger) media.Host {
	var (
		host media.Host
		err  error
	)

	switch cfg.MediaHost {
	case config.MediaSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
			logger.Warn("Supabase credentials missing, media uploads disabled")
			return nil
		}
		host, err = media.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket, logger)
	default:
		if cfg.CloudinaryURL == "" {
			logger.Warn("CLOUDINARY_URL missing, media uploads disabled")
			return nil
		}
		host, err = media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryUploadPreset, logger)
	}

	if err != nil {
		logger.WithError(err).Error("Failed to initialise media host, uploads disabled")
		return nil
	}
	return host
}

func openSuggester(ctx context.Context, cfg *config.ServiceConfig, logger *logrus.Logger) *tags.Suggester {
	var generator tags.Generator
	if cfg.GeminiAPIKey != "" {
		gen, err := tags.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.WithError(err).Error("Failed to initialise gemini, using fallback tags")
		} else {
			generator = gen
		}
	}
	return tags.NewSuggester(generator, cfg.TagsRatePerMinute, logger)
}

// openEvents connects to NATS when events are enabled. A nil client means
// events are off and the no-op publisher is used.
func openEvents(cfg *config.ServiceConfig, logger *logrus.Logger) (*natsClient.Client, publisher.Publisher, error) {
	if !cfg.EventsEnabled {
		logger.Info("Domain events disabled")
		return nil, publisher.Nop{}, nil
	}

	natsCfg := config.LoadNatsConfig()
	client, err := natsClient.NewClient(natsClient.Config{
		URL:           natsCfg.URL,
		MaxReconnects: natsCfg.MaxReconnects,
		ReconnectWait: natsCfg.ReconnectWait,
		ClientID:      natsCfg.ClientID,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize NATS client: %w", err)
	}
	return client, publisher.NewEventPublisher(client, logger), nil
}
