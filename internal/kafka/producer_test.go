package kafka

import (
	"context"
	"errors"
	"testing"

	"placement-service/internal/event"
	"placement-service/internal/logger"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("SendsEnvelope", func(t *testing.T) {
		mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
		e, err := event.New(event.TypeApplicationSubmitted, "app-1", map[string]string{"jobTitle": "SDE"})
		require.NoError(t, err)

		mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			key, err := msg.Key.Encode()
			if err != nil {
				return err
			}
			if string(key) != "app-1" {
				return errors.New("unexpected key " + string(key))
			}
			value, err := msg.Value.Encode()
			if err != nil {
				return err
			}
			got, err := event.Unmarshal(value)
			if err != nil {
				return err
			}
			if got.ID != e.ID {
				return errors.New("unexpected event id")
			}
			return nil
		})

		p := newProducer(mock, "placement.events", logger.Discard())
		require.NoError(t, p.Publish(ctx, e))
		require.NoError(t, p.Close())
	})

	t.Run("PropagatesFailure", func(t *testing.T) {
		mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
		mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		e, err := event.New(event.TypeApplicationStatusChanged, "", nil)
		require.NoError(t, err)

		p := newProducer(mock, "placement.events", logger.Discard())
		assert.ErrorIs(t, p.Publish(ctx, e), sarama.ErrOutOfBrokers)
		require.NoError(t, p.Close())
	})
}
