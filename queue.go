package migrationbot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
)

// ToggleJob is the queue envelope between the interactions endpoint
// and the worker. The webhook acks Slack before the toggle runs, so
// everything the worker needs travels in the job.
type ToggleJob struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	MessageTS  string    `json:"message_ts"`
	TaskID     string    `json:"task_id"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewToggleJob(in Interaction, now time.Time) ToggleJob {
	return ToggleJob{
		ID:         uuid.NewString(),
		ChannelID:  in.ChannelID,
		MessageTS:  in.MessageTS,
		TaskID:     in.TaskID,
		ActorID:    in.ActorID,
		ActorName:  in.ActorName,
		EnqueuedAt: now,
	}
}

func (j ToggleJob) Interaction() Interaction {
	return Interaction{
		ActorID:   j.ActorID,
		ActorName: j.ActorName,
		TaskID:    j.TaskID,
		ChannelID: j.ChannelID,
		MessageTS: j.MessageTS,
	}
}

// QueueAPI abstracts the SQS client for tests.
type QueueAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher enqueues toggle jobs.
type Publisher struct {
	client   QueueAPI
	queueURL string
}

func NewPublisher(client QueueAPI, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

func (p *Publisher) Publish(ctx context.Context, job ToggleJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal toggle job: %w", err)
	}

	in := &sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		QueueUrl:    aws.String(p.queueURL),
	}
	if _, err := p.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("enqueue toggle job %s: %w", job.ID, err)
	}
	return nil
}
