package http

import (
	"context"
	"log"
	"net/http"

	"github.com/graphql-go/handler"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmehdipour/crmbeat/internal/broker"
	"github.com/jmehdipour/crmbeat/internal/config"
	crmgraphql "github.com/jmehdipour/crmbeat/internal/graphql"
	"github.com/jmehdipour/crmbeat/internal/http/middleware"
	"github.com/jmehdipour/crmbeat/internal/metrics"
	"github.com/jmehdipour/crmbeat/internal/repository"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rdb *redis.Client) (*Server, error) {
	// repos (MySQL)
	customersRepo := repository.NewCustomersRepository(mysqlDB)
	productsRepo := repository.NewProductsRepository(mysqlDB)
	ordersRepo := repository.NewOrdersRepository(mysqlDB)

	// repos (ClickHouse)
	purgeRepo := repository.NewPurgeArchiveRepository(clickhouseDB)

	schema, err := crmgraphql.NewSchema(crmgraphql.Deps{
		DB:        mysqlDB,
		Customers: customersRepo,
		Products:  productsRepo,
		Orders:    ordersRepo,
	})
	if err != nil {
		return nil, err
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// graphql (POST for queries/mutations, GET serves GraphiQL)
	gh := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	})
	e.Any("/graphql", echo.WrapHandler(gh), middleware.RateLimit(middleware.RateLimitConfig{
		Redis: rdb,
		RPS:   cfg.HTTP.RateLimitRPS,
	}))

	// ops routes, guarded by the shared key when one is configured
	queue := broker.New(rdb, cfg.Broker)
	v1 := e.Group("/v1", middleware.StaticToken(cfg.HTTP.APIKey))
	v1.GET("/audit/purges", listPurgesHandler(purgeRepo))
	v1.GET("/tasks/:id", taskResultHandler(queue))

	return &Server{e: e}, nil
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
