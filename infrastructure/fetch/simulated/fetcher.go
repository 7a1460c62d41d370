// Package simulated provides a deterministic platform fetcher for
// local development and testing. Real platform connectors plug in
// behind the same port.
package simulated

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/valueobjects"

	"go.uber.org/zap"
)

var activityKinds = map[valueobjects.Platform][]string{
	valueobjects.PlatformGitHub:        {"commit", "pull_request", "issue_comment", "release"},
	valueobjects.PlatformTwitter:       {"tweet", "reply", "retweet"},
	valueobjects.PlatformLinkedIn:      {"post", "article", "comment"},
	valueobjects.PlatformDevTo:         {"article", "comment"},
	valueobjects.PlatformStackOverflow: {"answer", "question", "comment"},
	valueobjects.PlatformHackerNews:    {"story", "comment"},
	valueobjects.PlatformHashnode:      {"article", "comment"},
	valueobjects.PlatformBlog:          {"post"},
}

var bioFragments = []string{
	"Building distributed systems and sharing what breaks along the way.",
	"Engineer. Writer. Currently exploring graph databases and event sourcing.",
	"Open to interesting collaborations. Previously shipped infra at scale.",
	"Hiring-curious builder working on developer tools.",
	"Writing about Go, serverless, and whatever else catches my attention.",
}

var locations = []string{
	"San Francisco, CA", "Berlin", "London", "Remote", "Toronto", "Bengaluru",
}

var companies = []string{
	"Acme Labs", "Northwind", "Initech", "Independent", "Vandelay Industries",
}

var sentiments = []string{"positive", "neutral", "negative"}

// Fetcher produces stable synthetic records. The same
// platform/identifier pair always yields the same profile, activity
// history, and cross-references.
type Fetcher struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewFetcher creates a simulated fetcher. The clock is injectable so
// tests can pin activity timestamps.
func NewFetcher(logger *zap.Logger, now func() time.Time) ports.PlatformFetcher {
	if now == nil {
		now = time.Now
	}
	return &Fetcher{now: now, logger: logger}
}

// Supports reports whether the platform is one of the known set.
func (f *Fetcher) Supports(platform valueobjects.Platform) bool {
	_, ok := activityKinds[platform]
	return ok
}

// Fetch builds the synthetic record for an identifier. Identifiers
// containing "missing" simulate a profile that does not exist, and
// "flaky" simulates a transient upstream failure.
func (f *Fetcher) Fetch(ctx context.Context, platform valueobjects.Platform, identifier string) (ports.FetchRecord, error) {
	if err := ctx.Err(); err != nil {
		return ports.FetchRecord{}, err
	}
	if !f.Supports(platform) {
		return ports.FetchRecord{}, fmt.Errorf("unsupported platform %q", platform)
	}

	record := ports.FetchRecord{
		Platform:   platform,
		Identifier: identifier,
	}

	switch {
	case strings.Contains(identifier, "missing"):
		record.Err = fmt.Errorf("profile %s not found on %s", identifier, platform)
		return record, nil
	case strings.Contains(identifier, "flaky"):
		return ports.FetchRecord{}, fmt.Errorf("%s upstream returned 503", platform)
	}

	rng := rand.New(rand.NewSource(seed(platform, identifier)))

	record.RawProfile = f.buildProfile(rng, platform, identifier)
	record.Activities = f.buildActivities(rng, platform, identifier)
	record.CrossReferences = f.buildCrossReferences(rng, platform, identifier)

	f.logger.Debug("simulated fetch complete",
		zap.String("platform", platform.String()),
		zap.String("identifier", identifier),
		zap.Int("activities", len(record.Activities)),
		zap.Int("crossRefs", len(record.CrossReferences)),
	)

	return record, nil
}

func (f *Fetcher) buildProfile(rng *rand.Rand, platform valueobjects.Platform, identifier string) map[string]interface{} {
	profile := map[string]interface{}{
		"name":     displayName(identifier),
		"bio":      bioFragments[rng.Intn(len(bioFragments))],
		"location": locations[rng.Intn(len(locations))],
		"website":  fmt.Sprintf("https://%s.dev", strings.ToLower(identifier)),
	}

	// Roughly a third of profiles omit the company field.
	if rng.Intn(3) != 0 {
		profile["company"] = companies[rng.Intn(len(companies))]
	}

	if platform == valueobjects.PlatformGitHub {
		profile["public_repos"] = 5 + rng.Intn(80)
		profile["followers"] = rng.Intn(2000)
	}

	return profile
}

func (f *Fetcher) buildActivities(rng *rand.Rand, platform valueobjects.Platform, identifier string) []valueobjects.ActivityEvent {
	kinds := activityKinds[platform]
	count := 3 + rng.Intn(12)
	now := f.now().UTC()

	activities := make([]valueobjects.ActivityEvent, 0, count)
	for i := 0; i < count; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		occurredAt := now.Add(-time.Duration(rng.Intn(21*24)) * time.Hour)
		content := fmt.Sprintf("%s %s #%d by %s", platform, kind, i+1, identifier)
		url := fmt.Sprintf("https://%s.example.com/%s/%s/%d", platform, identifier, kind, i+1)

		activity, err := valueobjects.NewActivityEvent(platform, kind, content, url, occurredAt, nil)
		if err != nil {
			continue
		}
		// Roughly half the sources annotate sentiment; the rest leave it out.
		if rng.Intn(2) == 0 {
			activity = activity.WithSentiment(sentiments[rng.Intn(len(sentiments))])
		}
		activities = append(activities, activity)
	}

	return activities
}

func (f *Fetcher) buildCrossReferences(rng *rand.Rand, platform valueobjects.Platform, identifier string) []valueobjects.CrossReference {
	var refs []valueobjects.CrossReference
	now := f.now().UTC()

	for _, target := range valueobjects.SupportedPlatforms() {
		if target == platform {
			continue
		}
		// Most profiles link out to one or two other platforms.
		if rng.Intn(4) != 0 {
			continue
		}

		confidence := 0.6 + rng.Float64()*0.4
		ref, err := valueobjects.NewCrossReference(platform, target, identifier, confidence, now)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}

	return refs
}

// seed derives a stable seed so repeated fetches agree.
func seed(platform valueobjects.Platform, identifier string) int64 {
	h := fnv.New64a()
	h.Write([]byte(platform.String()))
	h.Write([]byte(":"))
	h.Write([]byte(strings.ToLower(identifier)))
	return int64(h.Sum64())
}

func displayName(identifier string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(identifier)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
