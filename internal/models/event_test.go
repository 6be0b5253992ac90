package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRecord_AddTags(t *testing.T) {
	e := &EventRecord{}
	e.AddTags("crypto", "web3")
	e.AddTags("Web3", " defi ", "", "crypto", "api-sourced")

	assert.Equal(t, []string{"crypto", "web3", "defi", "api-sourced"}, e.CategoryTags)
	assert.Equal(t, "crypto,web3,defi,api-sourced", e.TagsString())
}

func TestEventRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  EventRecord
		wantErr bool
	}{
		{
			name:   "valid api record",
			record: EventRecord{ExternalID: "evt-1", Source: SourceAPI, TicketURL: "https://lu.ma/abc12345"},
		},
		{
			name:   "valid web record without urls",
			record: EventRecord{ExternalID: "https://lu.ma/abc12345", Source: SourceWeb},
		},
		{
			name:    "missing external id",
			record:  EventRecord{Source: SourceAPI},
			wantErr: true,
		},
		{
			name:    "unknown source",
			record:  EventRecord{ExternalID: "evt-1", Source: "rss"},
			wantErr: true,
		},
		{
			name:    "relative image url",
			record:  EventRecord{ExternalID: "evt-1", Source: SourceAPI, ImageURL: "/img/cover.png"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEventRecord_DropInvalidURLs(t *testing.T) {
	e := &EventRecord{
		ExternalID: "evt-1",
		Source:     SourceAPI,
		TicketURL:  "https://lu.ma/abc12345",
		ImageURL:   "//cdn.example.com/a.png",
	}

	cleared := e.DropInvalidURLs()

	assert.Equal(t, []string{"image_url"}, cleared)
	assert.Equal(t, "https://lu.ma/abc12345", e.TicketURL)
	assert.Empty(t, e.ImageURL)
	assert.NoError(t, e.Validate())
	assert.Empty(t, e.DropInvalidURLs())
}

func TestRunStats_ToMap(t *testing.T) {
	s := NewRunStats("run-1", []string{"api", "web"})
	s.RecordError("partition London failed")
	s.Saved = 3
	s.Finish()

	m := s.ToMap()
	assert.Equal(t, "run-1", m["run_id"])
	assert.Equal(t, "api,web", m["phases"])
	assert.Equal(t, 1, m["error_count"])
	assert.Equal(t, 3, m["saved"])
	assert.Contains(t, m, "runtime_seconds")
	assert.Len(t, s.Errors, 1)
}
