package migrationbot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	sent []sqs.SendMessageInput
	err  error
}

func (f *fakeQueue) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, *params)
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisherRoundTrip(t *testing.T) {
	queue := &fakeQueue{}
	p := NewPublisher(queue, "https://sqs.test/checklist-toggles")

	in := Interaction{
		ActorID:   "U1",
		ActorName: "kevin",
		TaskID:    "migrate_tours",
		ChannelID: "C1",
		MessageTS: "111.222",
	}
	job := NewToggleJob(in, time.Now())
	require.NotEmpty(t, job.ID)

	require.NoError(t, p.Publish(context.Background(), job))
	require.Len(t, queue.sent, 1)
	assert.Equal(t, "https://sqs.test/checklist-toggles", *queue.sent[0].QueueUrl)

	var decoded ToggleJob
	require.NoError(t, json.Unmarshal([]byte(*queue.sent[0].MessageBody), &decoded))
	assert.Equal(t, in, decoded.Interaction(), "the click survives the queue intact")
}

func TestPublisherError(t *testing.T) {
	p := NewPublisher(&fakeQueue{err: errors.New("queue unreachable")}, "url")
	err := p.Publish(context.Background(), NewToggleJob(Interaction{TaskID: "migrate_tours"}, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue toggle job")
}
