package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage(t *testing.T) {
	logger, hook := test.NewNullLogger()

	ev := NewAuthEvent(EventUserLoggedIn)
	ev.UserID = "7"
	ev.RemoteIP = "203.0.113.9"
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body, logger))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, EventUserLoggedIn, entry.Data["event"])
	assert.Equal(t, "7", entry.Data["user_id"])
	assert.Equal(t, "203.0.113.9", entry.Data["remote_ip"])
	assert.NotContains(t, entry.Data, "reason")

	failed := NewAuthEvent(EventLoginFailed)
	failed.Reason = "invalid_credentials"
	body, err = json.Marshal(failed)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body, logger))
	entry = hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "invalid_credentials", entry.Data["reason"])
	assert.NotContains(t, entry.Data, "user_id")
}

func TestHandleMessage_Rejects(t *testing.T) {
	logger, hook := test.NewNullLogger()

	assert.Error(t, handleMessage([]byte("{not json"), logger))
	assert.Error(t, handleMessage([]byte(`{"user_id":"7"}`), logger))
	assert.Empty(t, hook.AllEntries())
}

func TestStartAuditConsumer_StopsOnCancel(t *testing.T) {
	orig := dial
	defer func() { dial = orig }()

	var attempts atomic.Int32
	dial = func(string) (*amqp.Connection, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	}

	logger, hook := test.NewNullLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := StartAuditConsumer(ctx, "amqp://nowhere/", logger)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), attempts.Load(), "first backoff is one second")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestNewAuthEvent(t *testing.T) {
	ev := NewAuthEvent(EventUserRegistered)
	assert.Equal(t, EventUserRegistered, ev.Type)
	_, err := time.Parse(time.RFC3339, ev.OccurredAt)
	assert.NoError(t, err)
}
