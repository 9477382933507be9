package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftopia/shiftopia/modules"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/eventbus"
)

func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conf := configuration.Use()
	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	return pool, nil
}

// setupApp loads the built-in modules against a fresh pool and returns a
// context carrying that pool for service calls.
func setupApp(ctx context.Context) (context.Context, application.Application, *pgxpool.Pool, error) {
	pool, err := connectDB(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("loading modules: %w", err)
	}
	return composables.WithPool(ctx, pool), app, pool, nil
}
