package service

import (
	"log/slog"

	"github.com/kirinyoku/tixgo/internal/auth"
	"github.com/kirinyoku/tixgo/internal/gateway"
	postgresrepo "github.com/kirinyoku/tixgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/kirinyoku/tixgo/internal/service/admin"
	"github.com/kirinyoku/tixgo/internal/service/booking"
	"github.com/kirinyoku/tixgo/internal/service/checkout"
	"github.com/kirinyoku/tixgo/internal/service/payment"
	"github.com/kirinyoku/tixgo/internal/service/query"
)

type Services struct {
	Checkout *checkout.Service
	Payment  *payment.Service
	Query    *query.Service
	Admin    *admin.Service
	Auth     *auth.Service
}

type Config struct {
	Checkout checkout.Config
	Payment  payment.Config
	Query    query.Config
	Admin    admin.Config
	Auth     auth.Config
}

// Deps are the adapters the services run on. Publisher may be nil.
type Deps struct {
	Store     *postgresrepo.Store
	Cache     *redisrepo.Cache
	PubSub    *redisrepo.ChangesPubSub
	Gateway   gateway.Gateway
	Renderer  booking.Renderer
	Mailer    booking.Mailer
	Publisher booking.Publisher
}

func NewServices(d Deps, cfg Config, logger *slog.Logger) *Services {
	issuer := booking.NewIssuer(
		booking.NewPostgresStore(d.Store),
		d.Renderer,
		d.Mailer,
		d.Publisher,
		d.PubSub,
		logger,
	)

	return &Services{
		Checkout: checkout.New(d.Gateway, cfg.Checkout, logger),
		Payment:  payment.New(d.Gateway, issuer, cfg.Payment, logger),
		Query:    query.New(d.Store, d.Cache, cfg.Query),
		Admin:    admin.New(d.Store, d.Cache, d.PubSub, cfg.Admin, logger),
		Auth:     auth.New(cfg.Auth),
	}
}
