// Package integration spins up the backing services for end-to-end tests.
package integration

import (
	"context"
	"time"

	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type Env struct {
	PG    *tcPostgres.PostgresContainer
	Kafka *tcKafka.KafkaContainer
	Redis *tcRedis.RedisContainer

	PGURL     string
	Brokers   []string
	RedisAddr string

	cancel context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	env := &Env{cancel: cancel}

	pgC, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("orderflow"),
		tcPostgres.WithUsername("postgres"),
		tcPostgres.WithPassword("postgres"),
	)
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}
	env.PG = pgC

	env.PGURL, err = pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}

	kafkaC, err := tcKafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tcKafka.WithClusterID("orderflow-test"),
	)
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}
	env.Kafka = kafkaC

	env.Brokers, err = kafkaC.Brokers(ctx)
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}

	redisC, err := tcRedis.Run(ctx, "redis:7-alpine")
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}
	env.Redis = redisC

	env.RedisAddr, err = redisC.Endpoint(ctx, "")
	if err != nil {
		env.Teardown(ctx)
		return nil, err
	}
	return env, nil
}

func (e *Env) Teardown(ctx context.Context) {
	if e.Redis != nil {
		_ = e.Redis.Terminate(ctx)
	}
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
	e.cancel()
}
