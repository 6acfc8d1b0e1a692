package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/testingh"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/tracklog/internal/worker/redpanda/producer"
)

const (
	topic = "topic"
)

var (
	defaultTopics = []string{topic}
)

type IntegrationTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	kafkaCLi  *kadm.Client
	container *testingh.Container
	broker    string

	consumerCfg consumer.Config
	producerCfg producer.Config

	suite.Suite
}

func (i *IntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		i.T().Skip("integration suite skipped in short mode")
	}

	var err error
	ctx, cnsl := context.WithTimeout(context.Background(), time.Minute*2)
	i.ctx = ctx
	i.cancelFn = cnsl

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	i.container, err = testingh.NewRedpanda(func(connURL string) error {
		i.broker = connURL
		pandaCLi, err := kgo.NewClient(kgo.SeedBrokers(connURL))
		if err != nil {
			return err
		}

		if pingErr := pandaCLi.Ping(ctx); pingErr != nil {
			pandaCLi.Close()
			return pingErr
		}

		i.kafkaCLi = kadm.NewClient(pandaCLi)
		return nil
	})
	if errors.Is(err, testingh.ErrDockerUnavailable) {
		i.T().Skip(err.Error())
	}
	i.Require().NoError(err)

	createTopicResponses, err := i.kafkaCLi.CreateTopics(ctx, 1, 1, map[string]*string{}, defaultTopics...)
	i.Require().NoError(err)
	i.kafkaCLi.Close()

	for _, response := range createTopicResponses {
		i.Require().NoError(response.Err)
	}

	i.consumerCfg = consumer.Config{
		Brokers:       []string{i.broker},
		ConsumerGroup: "topic-cg",
		Topics:        []string{topic},
	}
	i.producerCfg = producer.Config{
		RetryAttempts: 5,
		RetryDelay:    time.Second,
		Brokers:       []string{i.broker},
		Topic:         topic,
	}
}

func (i *IntegrationTestSuite) TearDownSuite() {
	if i.cancelFn != nil {
		i.cancelFn()
	}
	if i.container != nil {
		i.Assert().NoError(i.container.Purge())
	}
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (i *IntegrationTestSuite) TestWorker_RedpandaQueue() {
	cases := map[string]struct {
		cfg        Config
		taskAmount int
	}{
		"ok": {
			cfg:        Config{NumWorkers: 10},
			taskAmount: 10,
		},
		"ok - tasks more than workers": {
			cfg:        Config{NumWorkers: 4},
			taskAmount: 100,
		},
	}

	for name, tc := range cases {
		i.Run(name, func() {
			ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
			defer cancel()

			consumerErrorChan := make(chan error, 1)
			eventConsumer, err := consumer.NewConsumer(i.consumerCfg, consumerErrorChan)
			i.Require().NoError(err)
			defer eventConsumer.Close()

			eventProducer, err := producer.NewProducer(ctx, i.producerCfg, log.With().Str("producer", "Publish").Logger())
			i.Require().NoError(err)
			defer eventProducer.Close()

			received := make(chan domain.Batch, tc.taskAmount)
			pool := New[domain.Batch](ctx, tc.cfg, NewRedpandaQueue[domain.Batch](eventProducer, eventConsumer), log.Logger)
			pool.Start(func(ctx context.Context, payload domain.Batch) error {
				received <- payload
				return nil
			})
			defer pool.GracefulStop()

			for k := 0; k < tc.taskAmount; k++ {
				pool.Process("test_id", domain.Batch{
					ID:     "test_id",
					Events: []domain.TrackedEvent{{Event: "app_open", DistinctID: "device"}},
				})
			}

			for k := 0; k < tc.taskAmount; k++ {
				select {
				case batch := <-received:
					i.Require().Equal("test_id", batch.ID)
					i.Require().Len(batch.Events, 1)
				case <-ctx.Done():
					i.FailNow("timed out waiting for batches")
				}
			}
		})
	}
}
