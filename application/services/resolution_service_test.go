package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-backend/application/ports"
	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/valueobjects"
)

// stubFetcher serves canned records keyed by "platform:identifier".
type stubFetcher struct {
	records   map[string]ports.FetchRecord
	errs      map[string]error
	supported map[valueobjects.Platform]bool
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		records: map[string]ports.FetchRecord{},
		errs:    map[string]error{},
		supported: map[valueobjects.Platform]bool{
			valueobjects.PlatformGitHub:  true,
			valueobjects.PlatformTwitter: true,
		},
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, platform valueobjects.Platform, identifier string) (ports.FetchRecord, error) {
	key := platform.String() + ":" + identifier
	if err, ok := f.errs[key]; ok {
		return ports.FetchRecord{}, err
	}
	if record, ok := f.records[key]; ok {
		return record, nil
	}
	return ports.FetchRecord{Platform: platform, Identifier: identifier}, nil
}

func (f *stubFetcher) Supports(platform valueobjects.Platform) bool {
	return f.supported[platform]
}

func (f *stubFetcher) addProfile(platform valueobjects.Platform, identifier string, fields map[string]interface{}) {
	f.records[platform.String()+":"+identifier] = ports.FetchRecord{
		Platform:   platform,
		Identifier: identifier,
		RawProfile: fields,
	}
}

// recordingNotifier captures progress updates for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	updates []ports.ProgressUpdate
}

func (n *recordingNotifier) NotifyProgress(ctx context.Context, ownerID string, update ports.ProgressUpdate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
	return nil
}

func (n *recordingNotifier) all() []ports.ProgressUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.ProgressUpdate{}, n.updates...)
}

func TestResolutionService_Resolve_Success(t *testing.T) {
	// Arrange
	fetcher := newStubFetcher()
	fetcher.addProfile(valueobjects.PlatformGitHub, "alice", map[string]interface{}{
		"name": "Alice Smith", "bio": "Engineer", "location": "Berlin",
	})
	fetcher.addProfile(valueobjects.PlatformTwitter, "alice", map[string]interface{}{
		"name": "Alice Smith", "bio": "Engineer", "location": "Berlin",
	})
	notifier := &recordingNotifier{}
	service := NewResolutionService(fetcher, notifier, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
		Targets: []PlatformTarget{
			{Platform: valueobjects.PlatformGitHub, Identifier: "alice"},
			{Platform: valueobjects.PlatformTwitter, Identifier: "alice"},
		},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.NodesFetched)
	assert.Equal(t, 0, outcome.NodesFailed)
	assert.Equal(t, 2, outcome.Graph.NodeCount())
	assert.False(t, outcome.Profile.InsufficientData)
	assert.Greater(t, outcome.Profile.Identity.ConfidenceScore, 0.0)
	assert.Len(t, notifier.all(), 2)
}

func TestResolutionService_Resolve_PartialFailureDegradesNode(t *testing.T) {
	// Arrange
	fetcher := newStubFetcher()
	fetcher.addProfile(valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	fetcher.errs["twitter:alice"] = errors.New("upstream returned 503")
	service := NewResolutionService(fetcher, nil, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
		Targets: []PlatformTarget{
			{Platform: valueobjects.PlatformGitHub, Identifier: "alice"},
			{Platform: valueobjects.PlatformTwitter, Identifier: "alice"},
		},
	})

	// Assert: the session completes, the failed platform stays visible.
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.NodesFetched)
	assert.Equal(t, 1, outcome.NodesFailed)
	assert.Equal(t, 2, outcome.Graph.NodeCount())

	failedKey, err := valueobjects.NewNodeKey(valueobjects.PlatformTwitter, "alice")
	require.NoError(t, err)
	failed, err := outcome.Graph.GetNode(failedKey)
	require.NoError(t, err)
	assert.Equal(t, entities.FetchFailed, failed.FetchStatus())
	assert.Contains(t, failed.FetchError(), "503")

	// One usable node means the capped confidence.
	assert.Equal(t, 0.5, outcome.Profile.Identity.ConfidenceScore)
}

func TestResolutionService_Resolve_RecordErrAlsoDegrades(t *testing.T) {
	// Arrange: the fetcher itself succeeded but the profile does not exist.
	fetcher := newStubFetcher()
	fetcher.records["github:ghost"] = ports.FetchRecord{
		Platform:   valueobjects.PlatformGitHub,
		Identifier: "ghost",
		Err:        errors.New("profile ghost not found"),
	}
	service := NewResolutionService(fetcher, nil, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Ghost",
		Targets:    []PlatformTarget{{Platform: valueobjects.PlatformGitHub, Identifier: "ghost"}},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.NodesFetched)
	assert.Equal(t, 1, outcome.NodesFailed)
	assert.True(t, outcome.Profile.InsufficientData)
}

func TestResolutionService_Resolve_SkipsUnsupportedPlatforms(t *testing.T) {
	// Arrange
	fetcher := newStubFetcher()
	fetcher.supported = map[valueobjects.Platform]bool{valueobjects.PlatformGitHub: true}
	fetcher.addProfile(valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	service := NewResolutionService(fetcher, nil, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
		Targets: []PlatformTarget{
			{Platform: valueobjects.PlatformGitHub, Identifier: "alice"},
			{Platform: valueobjects.PlatformLinkedIn, Identifier: "alice-smith"},
		},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Graph.NodeCount())
}

func TestResolutionService_Resolve_DeduplicatesTargets(t *testing.T) {
	// Arrange
	fetcher := newStubFetcher()
	fetcher.addProfile(valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	service := NewResolutionService(fetcher, nil, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
		Targets: []PlatformTarget{
			{Platform: valueobjects.PlatformGitHub, Identifier: "alice"},
			{Platform: valueobjects.PlatformGitHub, Identifier: "alice"},
		},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Graph.NodeCount())
	assert.Equal(t, 1, outcome.NodesFetched)
}

func TestResolutionService_Resolve_NoTargets(t *testing.T) {
	// Arrange
	service := NewResolutionService(newStubFetcher(), nil, nil, nil)

	// Act
	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
	})

	// Assert: an empty session still yields a valid graph and profile.
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Graph.NodeCount())
	assert.True(t, outcome.Profile.InsufficientData)
}

func TestResolutionService_Resolve_RequiresPersonName(t *testing.T) {
	service := NewResolutionService(newStubFetcher(), nil, nil, nil)

	_, err := service.Resolve(context.Background(), ResolveRequest{OwnerID: "user-1"})
	assert.Error(t, err)
}

func TestResolutionOutcome_CompletionEvent(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.addProfile(valueobjects.PlatformGitHub, "alice", map[string]interface{}{"name": "Alice Smith"})
	service := NewResolutionService(fetcher, nil, nil, nil)

	outcome, err := service.Resolve(context.Background(), ResolveRequest{
		OwnerID:    "user-1",
		PersonName: "Alice Smith",
		Targets:    []PlatformTarget{{Platform: valueobjects.PlatformGitHub, Identifier: "alice"}},
	})
	require.NoError(t, err)

	event := outcome.CompletionEvent("user-1")
	assert.Equal(t, "resolution.completed", event.GetEventType())
	assert.Equal(t, outcome.Graph.ID().String(), event.GetAggregateID())
}
