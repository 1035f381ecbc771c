package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/teamkb/teamkb/handlers"
	"github.com/teamkb/teamkb/internal/activity"
	"github.com/teamkb/teamkb/internal/ai"
	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/internal/database"
	"github.com/teamkb/teamkb/internal/document/repository"
	"github.com/teamkb/teamkb/internal/document/service"
	"github.com/teamkb/teamkb/internal/revision"
	"github.com/teamkb/teamkb/internal/sessions"
	"github.com/teamkb/teamkb/internal/tokens"
	"github.com/teamkb/teamkb/internal/users"
	"github.com/teamkb/teamkb/internal/versions"
	"github.com/teamkb/teamkb/pkg/logger"
	"github.com/teamkb/teamkb/pkg/metrics"
)

const mongoConnectAttempts = 5

// stores are the four persistent collections, Mongo-backed or in memory.
type stores struct {
	users      users.UserRepository
	documents  repository.Repository
	versions   versions.Repository
	activities activity.Repository
}

func memoryStores() stores {
	return stores{
		users:      users.NewMemoryUserRepository(),
		documents:  repository.NewMemoryRepo(),
		versions:   versions.NewMemoryRepo(),
		activities: activity.NewMemoryRepo(),
	}
}

// mongoStores builds Mongo repositories and makes sure their indexes exist.
// The versions index is what keeps concurrent appends from sharing a number.
func mongoStores(ctx context.Context, client *mongo.Client, dbName string) (stores, error) {
	cols := database.NewCollections(client, dbName)
	u := users.NewMongoUserRepository(cols.Users)
	d := repository.NewMongoRepo(cols.Documents)
	v := versions.NewMongoRepo(cols.Versions)
	a := activity.NewMongoRepo(cols.Activities)

	for name, ensure := range map[string]func(context.Context) error{
		"users":      u.EnsureIndexes,
		"documents":  d.EnsureIndexes,
		"versions":   v.EnsureIndexes,
		"activities": a.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return stores{}, fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	return stores{users: u, documents: d, versions: v, activities: a}, nil
}

// connectRedis returns nil when Redis is not configured or not reachable.
func connectRedis(ctx context.Context, rc config.RedisConfig) *redis.Client {
	if rc.Addr() == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("redis %s unreachable, continuing without cache, blacklist and shared rate limits: %v", rc.Addr(), err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to redis at %s", rc.Addr())
	return client
}

// buildDeps wires every service the router needs on top of s.
func buildDeps(c *config.Config, s stores, rdb *redis.Client, mongoClient *mongo.Client) handlers.Deps {
	userSvc := users.NewService(s.users, c.Auth.IsAdminEmail)

	var cache versions.HistoryCache
	if rdb != nil {
		cache = versions.NewRedisCache(rdb, "", c.Cache.HistoryTTL)
	}
	ledger := versions.NewLedger(s.versions, cache, userSvc)
	act := activity.NewService(s.activities, s.documents, userSvc)
	aiClient := ai.NewOpenAIClient(c.AI)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	ready := map[string]handlers.ReadinessCheck{}
	if mongoClient != nil {
		ready["mongodb"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	if rdb != nil {
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return handlers.Deps{
		Config:      c,
		Users:       userSvc,
		Issuer:      tokens.NewIssuer(c.JWT.Secret, c.JWT.TTL),
		Blacklist:   sessions.NewBlacklist(rdb),
		Coordinator: revision.NewCoordinator(s.documents, ledger, act, aiClient),
		Documents:   service.New(s.documents, aiClient),
		Ledger:      ledger,
		Activity:    act,
		Redis:       rdb,
		Gatherer:    reg,
		Ready:       ready,
	}
}
