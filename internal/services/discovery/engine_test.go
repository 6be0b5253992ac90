package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/models"
)

// fakeAPI returns two entries per partition and fails the partitions listed in failing
type fakeAPI struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   []string
}

func (f *fakeAPI) GetPaginatedEvents(ctx context.Context, partition models.Partition) (*PaginatedEventsResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, partition.Name)
	f.mu.Unlock()

	if f.failing[partition.Name] {
		return nil, &APIError{StatusCode: 500, Message: "boom", Endpoint: "/discover/get-paginated-events"}
	}
	return &PaginatedEventsResponse{
		Entries: []Entry{
			{APIID: "id-" + partition.Name + "-a", Event: EventInfo{Name: "A", URL: "slug" + partition.Name + "a"}},
			{APIID: "", Event: EventInfo{Name: "broken"}},
			{APIID: "id-" + partition.Name + "-b", Event: EventInfo{Name: "B"}},
		},
	}, nil
}

func (f *fakeAPI) GetCategoryPage(ctx context.Context) (*models.CategoryInfo, error) {
	return nil, errors.New("unavailable")
}

// fakeEnricher returns a detail for every slug and records the slugs asked for
type fakeEnricher struct {
	mu    sync.Mutex
	slugs []string
}

func (f *fakeEnricher) Enrich(ctx context.Context, slug string) (*models.EventDetail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugs = append(f.slugs, slug)
	return &models.EventDetail{Description: "detail for " + slug, Keywords: []string{"defi"}}, true
}

func partitionsN(n int) []models.Partition {
	partitions := make([]models.Partition, n)
	for i := range partitions {
		partitions[i] = models.Partition{Name: fmt.Sprintf("p%02d", i+1)}
	}
	return partitions
}

func TestEngine_PartitionFailureIsolated(t *testing.T) {
	api := &fakeAPI{failing: map[string]bool{"p03": true}}
	engine := NewEngine(api, nil, "https://lu.ma", []string{"crypto"}, 1, arbor.NewLogger())

	result, err := engine.Discover(context.Background(), partitionsN(10))
	require.NoError(t, err)

	assert.Equal(t, 10, result.APICalls)
	assert.Equal(t, 9, result.PartitionsProcessed)
	assert.Equal(t, 1, result.PartitionsFailed)
	assert.Equal(t, 9, result.EntriesSkipped)
	require.Len(t, result.Records, 18)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "p03")

	for _, r := range result.Records {
		assert.NotEqual(t, "p03", r.DiscoveryLocation)
	}
	assert.Equal(t, "p04", result.Records[4].DiscoveryLocation)
}

func TestEngine_WorkersKeepCatalogOrder(t *testing.T) {
	api := &fakeAPI{}
	engine := NewEngine(api, nil, "https://lu.ma", nil, 4, arbor.NewLogger())

	result, err := engine.Discover(context.Background(), partitionsN(12))
	require.NoError(t, err)
	require.Len(t, result.Records, 24)

	for i, p := range partitionsN(12) {
		assert.Equal(t, "id-"+p.Name+"-a", result.Records[2*i].ExternalID)
		assert.Equal(t, "id-"+p.Name+"-b", result.Records[2*i+1].ExternalID)
	}
	assert.Len(t, api.calls, 12)
}

func TestEngine_EnrichesEntriesWithSlug(t *testing.T) {
	enricher := &fakeEnricher{}
	engine := NewEngine(&fakeAPI{}, enricher, "https://lu.ma", []string{"crypto", "web3"}, 1, arbor.NewLogger())

	result, err := engine.Discover(context.Background(), partitionsN(1))
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, []string{"slugp01a"}, enricher.slugs)
	assert.Equal(t, "detail for slugp01a", result.Records[0].Description)
	assert.Equal(t, []string{"crypto", "web3", models.TagAPISourced, "defi"}, result.Records[0].CategoryTags)
	assert.Equal(t, "", result.Records[1].Description)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&fakeAPI{}, nil, "https://lu.ma", nil, 1, arbor.NewLogger())
	result, err := engine.Discover(ctx, partitionsN(5))

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.APICalls)
}

func TestEngine_DiscoverCategoryError(t *testing.T) {
	engine := NewEngine(&fakeAPI{}, nil, "https://lu.ma", nil, 1, arbor.NewLogger())
	_, err := engine.DiscoverCategory(context.Background())
	assert.Error(t, err)
}
