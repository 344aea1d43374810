package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// SQSAPI is the subset of the SQS client the sink uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// NewSQSClient loads the default AWS credential chain for region.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

type sqsBody struct {
	ProfileID  string `json:"profile_id"`
	GameID     string `json:"game_id"`
	ScoreDelta int    `json:"score_delta"`
	XPDelta    int    `json:"xp_delta"`
	SessionID  string `json:"session_id"`
	EndedAt    string `json:"ended_at"`
}

// SQS publishes score deltas to a queue for a remote profile service.
type SQS struct {
	client          SQSAPI
	queueURL        string
	profileID       string
	persistNegative bool
	timeout         time.Duration
	log             zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewSQS returns a queue sink crediting profileID.
func NewSQS(client SQSAPI, queueURL, profileID string, persistNegative bool, log zerolog.Logger) *SQS {
	return &SQS{
		client:          client,
		queueURL:        queueURL,
		profileID:       profileID,
		persistNegative: persistNegative,
		timeout:         DefaultTimeout,
		log:             log,
	}
}

// Submit implements engine.Sink.
func (s *SQS) Submit(res engine.Result) {
	if s.profileID == "" {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Publish(ctx, res); err != nil {
			s.log.Warn().Err(err).Str("session", res.SessionID).Msg("failed to publish result")
		}
	}()
}

// Publish sends one result synchronously.
func (s *SQS) Publish(ctx context.Context, res engine.Result) error {
	if s.client == nil {
		return fmt.Errorf("sqs client is nil")
	}
	delta := DeltaFor(res, s.persistNegative)
	payload := sqsBody{
		ProfileID:  s.profileID,
		GameID:     res.GameID,
		ScoreDelta: delta.Score,
		XPDelta:    delta.XP,
		SessionID:  res.SessionID,
		EndedAt:    res.EndedAt.UTC().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	input := &sqs.SendMessageInput{
		QueueUrl:    &s.queueURL,
		MessageBody: stringPtr(string(body)),
	}
	if strings.HasSuffix(s.queueURL, ".fifo") {
		input.MessageGroupId = stringPtr(s.profileID)
		input.MessageDeduplicationId = stringPtr(res.SessionID)
	}
	_, err = s.client.SendMessage(ctx, input)
	return err
}

// Close stops accepting results and waits for in-flight sends until ctx is done.
func (s *SQS) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return wait(ctx, &s.wg)
}

func stringPtr(v string) *string { return &v }
