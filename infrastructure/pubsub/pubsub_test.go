package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"pin-scheduler/domain/model"
)

func TestPinEventPublisher_CreatesTopicAndPublishes(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := gpubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	pub := NewPinEventPublisher(client, "pin-status")
	pinterestID := "abc"
	evt := model.PinEvent{Type: model.PinEventType, PinID: "p1", Status: model.PinStatusPublished, PinterestID: &pinterestID, OccurredAt: time.Unix(0, 0).UTC()}
	require.NoError(t, pub.PublishPinEvent(ctx, evt))
	require.NoError(t, pub.PublishPinEvent(ctx, evt))

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "p1", msgs[0].Attributes["pin_id"])
	var got model.PinEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, model.PinStatusPublished, got.Status)
	assert.Equal(t, "abc", *got.PinterestID)
}

func TestPinEventPublisher_NilClient(t *testing.T) {
	err := NewPinEventPublisher(nil, "pin-status").PublishPinEvent(context.Background(), model.PinEvent{PinID: "p1"})
	assert.Error(t, err)
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
