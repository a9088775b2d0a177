package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenantkit/core"
	"github.com/dmitrymomot/tenantkit/modules/auth"
	"github.com/dmitrymomot/tenantkit/modules/projects"
	"github.com/dmitrymomot/tenantkit/modules/tenants"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/environment"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/scope"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/pkg/txn"
	authsvc "github.com/dmitrymomot/tenantkit/svc/auth"
	projectsvc "github.com/dmitrymomot/tenantkit/svc/project"
	tenantsvc "github.com/dmitrymomot/tenantkit/svc/tenant"
)

type appConfig struct {
	Environment   string `env:"APP_ENV" envDefault:"development"`
	ServiceName   string `env:"APP_NAME" envDefault:"tenantkit"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, cfg.ServiceName),
		logger.WithContextExtractors(tenant.LoggerExtractor(), requestIDExtractor()),
	)
	logger.SetAsDefault(log)

	var (
		mgr          *txn.Manager
		tenantStore  tenantsvc.Storer
		userStore    authsvc.Storer
		projectStore projectsvc.Storer
		health       func(context.Context) error
	)

	switch cfg.StorageDriver {
	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			log.Error("postgres connection failed", logger.Error(err))
			os.Exit(1)
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			log.Error("migrations failed", logger.Error(err))
			os.Exit(1)
		}

		mgr = txn.NewManager("pg", pg.NewTxBeginner(pool), txn.WithManagerLogger(log))
		tenantStore = tenantsvc.NewPostgresStore(pool, mgr)
		userStore = authsvc.NewPostgresStore(pool, mgr)
		projectStore = projectsvc.NewPostgresStore(pool, mgr)
		health = pg.Healthcheck(pool)

	case "mongo":
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)

		client, err := mongo.New(ctx, mongoCfg)
		if err != nil {
			log.Error("mongo connection failed", logger.Error(err))
			os.Exit(1)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		db := client.Database(mongoCfg.DatabaseName)

		mgr = txn.NewManager("mongo", mongo.NewTxBeginner(client), txn.WithManagerLogger(log))

		tenantMongo := tenantsvc.NewMongoStore(db, mgr)
		userMongo := authsvc.NewMongoStore(db, mgr)
		projectMongo := projectsvc.NewMongoStore(db, mgr)
		for _, idx := range []interface {
			EnsureIndexes(context.Context) error
		}{tenantMongo, userMongo, projectMongo} {
			if err := idx.EnsureIndexes(ctx); err != nil {
				log.Error("index creation failed", logger.Error(err))
				os.Exit(1)
			}
		}

		tenantStore, userStore, projectStore = tenantMongo, userMongo, projectMongo
		health = mongo.Healthcheck(client)

	default:
		log.Error("unknown storage driver", slog.String("driver", cfg.StorageDriver))
		os.Exit(1)
	}

	var authCfg authsvc.Config
	config.MustLoad(&authCfg)

	tenantSvc := tenantsvc.NewService(tenantStore, mgr, tenantsvc.WithLogger(log))
	authSvc := authsvc.NewService(userStore, mgr, authCfg, authsvc.WithLogger(log))
	projectSvc := projectsvc.NewService(projectStore, mgr, projectsvc.WithLogger(log))

	logDispositions(log, "tenant", tenantSvc.Report())
	logDispositions(log, "auth", authSvc.Report())
	logDispositions(log, "project", projectSvc.Report())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(environmentMiddleware(cfg.Environment))
	r.Use(scope.Middleware())
	r.Use(authSvc.Middleware())
	r.Use(tenant.ResolveMiddleware(tenantSvc,
		tenant.WithLogger(log),
		tenant.WithErrorHandler(core.WriteError)))
	r.Use(tenant.RequireTenant(
		tenant.WithAllowPaths("/auth", "/tenants", "/healthz"),
		tenant.WithErrorHandler(core.WriteError)))

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log, health))
	r.Mount("/auth", auth.New(authSvc).Handle())
	r.Mount("/tenants", tenants.New(tenantSvc).Handle())
	r.Mount("/projects", projects.New(projectSvc).Handle())

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)

	if err := httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log)).Run(ctx, r); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

// requestIDExtractor enriches log records with the chi request ID.
func requestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := chimw.GetReqID(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}

// environmentMiddleware tags every request context with the deployment
// environment so the error formatter knows whether raw messages may leak.
func environmentMiddleware(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(environment.WithContext(r.Context(), env)))
		})
	}
}

func logDispositions(log *slog.Logger, service string, report []txn.MethodReport) {
	for _, m := range report {
		if m.Wrapped {
			log.Debug("transactional method",
				slog.String("service", service),
				slog.String("method", m.Name),
				slog.String("propagation", m.Propagation.String()))
			continue
		}
		log.Debug("non-transactional method",
			slog.String("service", service),
			slog.String("method", m.Name),
			slog.String("reason", m.Reason))
	}
}
