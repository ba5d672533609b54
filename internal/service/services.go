package service

import (
	postgres "github.com/showbill/boxoffice/internal/repository/postgres"
	redis "github.com/showbill/boxoffice/internal/repository/redis"
	"github.com/showbill/boxoffice/internal/service/admin"
	"github.com/showbill/boxoffice/internal/service/inventory"
	"github.com/showbill/boxoffice/internal/service/orders"
	"github.com/showbill/boxoffice/internal/service/query"
)

type Services struct {
	Orders    *orders.Service
	Inventory *inventory.Service
	Query     *query.Service
	Admin     *admin.Service
}

type Config struct {
	Query query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.OfferingsPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Orders:    orders.New(store, cache, pubsub, limiter),
		Inventory: inventory.New(store, cache, pubsub),
		Query:     query.New(store, cache, cfg.Query),
		Admin:     admin.New(store),
	}
}
