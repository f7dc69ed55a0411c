package migrationbot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// RecordStore is the persistence boundary. Implementations live in the
// store package.
//
// Toggle is deliberately a single store-level primitive rather than a
// read-modify-write sequence: two near-simultaneous clicks on the same
// task must serialize at the store, not race in the handler.
type RecordStore interface {
	FindBySubject(ctx context.Context, key string) (*Record, error)
	FindByMessageRef(ctx context.Context, channelID, timestamp string) (*Record, error)
	Create(ctx context.Context, key string, meta Metadata) (*Record, error)
	UpdateMetadata(ctx context.Context, key string, meta Metadata) (*Record, error)
	SetMessageRef(ctx context.Context, key string, ref MessageRef) error
	Toggle(ctx context.Context, channelID, timestamp, taskID string, at time.Time, actorID, actorName string) (*Record, error)
}

var (
	ErrStoreNil   = errors.New("record store is nil")
	ErrGatewayNil = errors.New("gateway is nil")
)

var validate = validator.New()

// CreateRequest is the input of the creation endpoint, either decoded
// from a JSON body or parsed out of a slash command's free text.
type CreateRequest struct {
	ChannelID   string `json:"channelId" validate:"required"`
	ClientEmail string `json:"clientEmail" validate:"required"`
	Plan        string `json:"plan"`
	RenewalDate string `json:"renewalDate"`
	Notes       string `json:"notes"`
}

// Validate fails closed before any store mutation.
func (r CreateRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Fields: fields}
	}
	return err
}

func (r CreateRequest) metadata() Metadata {
	return Metadata{Plan: r.Plan, RenewalDate: r.RenewalDate, Notes: r.Notes}
}

// Interaction is one inbound button click, already extracted from the
// Slack payload.
type Interaction struct {
	ActorID   string
	ActorName string
	TaskID    string
	ChannelID string
	MessageTS string
}

// Service wires the record store, the renderer and the Slack gateway
// into the two operations the bot supports.
type Service struct {
	store     RecordStore
	gateway   *Gateway
	checklist []TaskDefinition
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(st RecordStore, gw *Gateway) (*Service, error) {
	if st == nil {
		return nil, ErrStoreNil
	}
	if gw == nil {
		return nil, ErrGatewayNil
	}
	return &Service{
		store:     st,
		gateway:   gw,
		checklist: Checklist,
		logger:    slog.Default(),
		now:       time.Now,
	}, nil
}

// CreateOrUpdate creates the checklist record for a subject (or merges
// new metadata into the existing one) and posts or refreshes its Slack
// message. The first successful post binds the record to that message;
// every later call edits it in place.
func (s *Service) CreateOrUpdate(ctx context.Context, req CreateRequest) (MessageRef, error) {
	if err := req.Validate(); err != nil {
		return MessageRef{}, err
	}

	rec, err := s.store.FindBySubject(ctx, req.ClientEmail)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec, err = s.store.Create(ctx, req.ClientEmail, req.metadata())
		if errors.Is(err, ErrRecordExists) {
			// Lost the create race; merge like any repeat request.
			rec, err = s.store.UpdateMetadata(ctx, req.ClientEmail, req.metadata())
		}
		if err != nil {
			return MessageRef{}, err
		}
	case err != nil:
		return MessageRef{}, err
	default:
		rec, err = s.store.UpdateMetadata(ctx, req.ClientEmail, req.metadata())
		if err != nil {
			return MessageRef{}, err
		}
	}

	blocks := Render(s.checklist, rec, s.now())

	if rec.MessageRef.IsZero() {
		ref, err := s.gateway.Send(req.ChannelID, FallbackText(rec), blocks)
		if err != nil {
			return MessageRef{}, err
		}
		if err := s.store.SetMessageRef(ctx, rec.SubjectKey, ref); err != nil {
			return MessageRef{}, err
		}
		return ref, nil
	}

	if err := s.gateway.Edit(rec.MessageRef, FallbackText(rec), blocks); err != nil {
		return MessageRef{}, err
	}
	return rec.MessageRef, nil
}

// HandleInteraction runs the toggle pipeline for one button click. The
// 200 ack went out when the click was enqueued, so every failure here
// is logged and swallowed; Slack must never see an error or a retry.
// A persisted toggle whose edit fails leaves the message stale until
// the next click, which is the accepted inconsistency window.
func (s *Service) HandleInteraction(ctx context.Context, in Interaction) error {
	log := s.logger.With("channel", in.ChannelID, "ts", in.MessageTS, "task", in.TaskID)

	if !s.knownTask(in.TaskID) {
		log.Warn("interaction for unknown task, dropping")
		return nil
	}

	if _, err := s.store.FindByMessageRef(ctx, in.ChannelID, in.MessageTS); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			log.Warn("no record for message, dropping interaction")
		} else {
			log.Error("record lookup failed", "error", err)
		}
		return nil
	}

	actorName := s.gateway.Username(in.ActorID, in.ActorName)

	rec, err := s.store.Toggle(ctx, in.ChannelID, in.MessageTS, in.TaskID, s.now(), in.ActorID, actorName)
	if err != nil {
		log.Error("status toggle failed", "error", err)
		return nil
	}

	blocks := Render(s.checklist, rec, s.now())
	if err := s.gateway.Edit(rec.MessageRef, FallbackText(rec), blocks); err != nil {
		log.Error("message edit failed", "error", err)
		return nil
	}

	log.Info("checklist updated", "actor", actorName, "status", rec.TaskStatus(in.TaskID))
	return nil
}

func (s *Service) knownTask(taskID string) bool {
	for _, t := range s.checklist {
		if t.ID == taskID {
			return true
		}
	}
	return false
}
