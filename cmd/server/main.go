package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftopia/shiftopia/internal/server"
	"github.com/shiftopia/shiftopia/modules"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	poolConf, err := pgxpool.ParseConfig(conf.Database.ConnectionString())
	if err != nil {
		log.Fatalf("invalid database configuration: %v", err)
	}
	poolConf.MaxConns = conf.Database.MaxConns
	poolConf.MinConns = conf.Database.MinConns
	poolConf.MaxConnLifetime = conf.Database.ConnMaxLifetime
	poolConf.MaxConnIdleTime = conf.Database.ConnMaxIdleTime
	poolConf.ConnConfig.RuntimeParams["statement_timeout"] = conf.Database.QueryTimeout.String()

	pool, err := pgxpool.NewWithConfig(ctx, poolConf)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	if conf.MigrateOnStart {
		if err := app.Migrations().Run(context.Background()); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	logger.Infof("listening on %s", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
