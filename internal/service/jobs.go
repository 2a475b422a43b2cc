package service

import (
	"context"
	"log/slog"

	"github.com/erodriguezln/keyrank/pkg/kafka"
)

// ResultPublisher publishes job results. *kafka.Producer implements it.
type ResultPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// HandleJob returns a Kafka message handler that decodes tally job requests,
// executes them, and publishes the result. Malformed messages and failed
// jobs are logged and skipped so the topic never wedges.
func HandleJob(svc *Service, results ResultPublisher) kafka.MessageHandler {
	log := slog.Default().With("component", "job-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[JobRequest](value)
		if err != nil {
			log.Error("failed to decode job request", "error", err)
			return nil
		}
		if req.CorpusPath == "" {
			log.Error("job request missing corpus path", "job_id", req.JobID)
			return nil
		}

		result, _, err := svc.Execute(ctx, req)
		if err != nil {
			log.Error("job failed",
				"job_id", req.JobID,
				"corpus", req.CorpusPath,
				"error", err,
			)
		}

		if results != nil {
			if err := results.Publish(ctx, kafka.Event{Key: req.JobID, Value: result}); err != nil {
				log.Error("failed to publish job result", "job_id", req.JobID, "error", err)
			}
		}
		return nil
	}
}
