// Command resolve runs one identity resolution session from the command
// line against the simulated fetch layer and prints the unified profile
// as JSON. Useful for inspecting scoring behavior without a server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"nexus-backend/application/commands"
	"nexus-backend/application/queries"
	"nexus-backend/application/services"
	"nexus-backend/domain/scoring"
	"nexus-backend/infrastructure/fetch/simulated"
	"nexus-backend/infrastructure/persistence/memory"
)

func main() {
	name := flag.String("name", "", "person name to resolve")
	targets := flag.String("targets", "", "comma-separated platform:identifier pairs, e.g. github:alice,devto:alice")
	withScores := flag.Bool("scores", false, "also print momentum and readiness")
	contextScore := flag.Float64("context", 50, "context score for readiness (0-100)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *name == "" || *targets == "" {
		flag.Usage()
		os.Exit(2)
	}

	accounts, err := parseTargets(*targets)
	if err != nil {
		log.Fatalf("invalid -targets: %v", err)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("init logger: %v", err)
		}
	}

	fetcher := simulated.NewFetcher(logger, time.Now)
	resolution := services.NewResolutionService(fetcher, nil, nil, logger)
	graphRepo := memory.NewGraphStore()
	profileRepo := memory.NewProfileStore()
	resolve := commands.NewResolveIdentityHandler(resolution, graphRepo, profileRepo, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const ownerID = "cli"
	result, err := resolve.Handle(ctx, commands.ResolveIdentityCommand{
		UserID:     ownerID,
		PersonName: *name,
		Targets:    accounts,
	})
	if err != nil {
		log.Fatalf("resolution failed: %v", err)
	}

	output := map[string]interface{}{
		"graph_id":      result.GraphID,
		"confidence":    result.Confidence,
		"nodes_fetched": result.NodesFetched,
		"nodes_failed":  result.NodesFailed,
	}

	profile, err := queries.NewGetProfileHandler(graphRepo, profileRepo).
		Handle(ctx, queries.GetProfileQuery{GraphID: result.GraphID, UserID: ownerID})
	if err != nil {
		log.Fatalf("load profile: %v", err)
	}
	output["profile"] = profile.Profile

	if *withScores {
		momentum, err := queries.NewScoreMomentumHandler(graphRepo, scoring.NewMomentumScorer(nil)).
			Handle(ctx, queries.ScoreMomentumQuery{GraphID: result.GraphID, UserID: ownerID})
		if err != nil {
			log.Fatalf("score momentum: %v", err)
		}
		output["momentum"] = momentum.Momentum

		readiness, err := queries.NewScoreReadinessHandler(graphRepo, scoring.NewMomentumScorer(nil), scoring.NewReadinessScorer(nil, logger)).
			Handle(ctx, queries.ScoreReadinessQuery{GraphID: result.GraphID, UserID: ownerID, ContextScore: *contextScore})
		if err != nil {
			log.Fatalf("score readiness: %v", err)
		}
		output["readiness"] = map[string]interface{}{
			"cit":      readiness.CIT,
			"strategy": readiness.Strategy,
			"intent":   readiness.Intent,
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func parseTargets(s string) ([]commands.TargetAccount, error) {
	var accounts []commands.TargetAccount
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		platform, identifier, ok := strings.Cut(pair, ":")
		if !ok || platform == "" || identifier == "" {
			return nil, fmt.Errorf("malformed pair %q, want platform:identifier", pair)
		}
		accounts = append(accounts, commands.TargetAccount{
			Platform:   strings.ToLower(platform),
			Identifier: identifier,
		})
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no targets given")
	}
	return accounts, nil
}
