// Package main implements the asynchronous resolution worker Lambda.
// Large resolution jobs are queued instead of running inside the API
// request; this worker drains the queue and runs them through the same
// command bus as the synchronous path.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"nexus-backend/application/commands"
	commandbus "nexus-backend/application/commands/bus"
	"nexus-backend/infrastructure/config"
	"nexus-backend/infrastructure/di"
)

// Global dependencies for Lambda performance optimization
var commandBus *commandbus.CommandBus

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	commandBus = container.CommandBus

	log.Println("Resolve-worker handler initialized")
}

// ResolutionJob is one queued resolution request
type ResolutionJob struct {
	UserID     string      `json:"user_id"`
	PersonName string      `json:"person_name"`
	Targets    []JobTarget `json:"targets"`
}

// JobTarget names one platform account to resolve
type JobTarget struct {
	Platform   string `json:"platform"`
	Identifier string `json:"identifier"`
}

// processJob runs one resolution end to end
func processJob(ctx context.Context, job ResolutionJob) error {
	targets := make([]commands.TargetAccount, 0, len(job.Targets))
	for _, t := range job.Targets {
		targets = append(targets, commands.TargetAccount{
			Platform:   t.Platform,
			Identifier: t.Identifier,
		})
	}

	cmd := commands.ResolveIdentityCommand{
		UserID:     job.UserID,
		PersonName: job.PersonName,
		Targets:    targets,
	}

	result, err := commandBus.Send(ctx, cmd)
	if err != nil {
		return fmt.Errorf("resolution failed for %q: %w", job.PersonName, err)
	}

	if res, ok := result.(*commands.ResolveIdentityResult); ok {
		log.Printf("Resolved %q: graph=%s confidence=%.2f fetched=%d failed=%d",
			job.PersonName, res.GraphID, res.Confidence, res.NodesFetched, res.NodesFailed)
	}

	return nil
}

// handler accepts SQS batches or a single direct-invoke job
func handler(ctx context.Context, event json.RawMessage) error {
	var sqsEvent awsevents.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		var firstErr error
		for _, record := range sqsEvent.Records {
			var job ResolutionJob
			if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
				log.Printf("Failed to parse job %s: %v", record.MessageId, err)
				continue
			}
			if err := processJob(ctx, job); err != nil {
				log.Printf("Job %s failed: %v", record.MessageId, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	}

	var job ResolutionJob
	if err := json.Unmarshal(event, &job); err != nil {
		return fmt.Errorf("unable to parse resolution job: %w", err)
	}
	return processJob(ctx, job)
}

func main() {
	lambda.Start(handler)
}
