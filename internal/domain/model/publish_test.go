package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *PublishConfig
		wantErr bool
	}{
		{name: "valid", cfg: &PublishConfig{Name: "production", Environment: "composer"}},
		{name: "nil", cfg: nil, wantErr: true},
		{name: "missing name", cfg: &PublishConfig{Environment: "composer"}, wantErr: true},
		{name: "blank name", cfg: &PublishConfig{Name: "  ", Environment: "composer"}, wantErr: true},
		{name: "missing environment", cfg: &PublishConfig{Name: "production"}, wantErr: true},
		{
			name: "missing credentials still valid",
			cfg:  &PublishConfig{Name: "production", Environment: "composer", AccessToken: "", Provision: nil},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBotProjectValidate(t *testing.T) {
	tests := []struct {
		name    string
		project *BotProject
		wantErr bool
	}{
		{name: "valid", project: &BotProject{BotID: "weather-bot", Files: []AssetFile{{RelativePath: "dialogs/main.dialog"}}}},
		{name: "nil", project: nil, wantErr: true},
		{name: "missing bot id", project: &BotProject{}, wantErr: true},
		{name: "empty file path", project: &BotProject{BotID: "b", Files: []AssetFile{{RelativePath: ""}}}, wantErr: true},
		{name: "absolute path", project: &BotProject{BotID: "b", Files: []AssetFile{{RelativePath: "/etc/passwd"}}}, wantErr: true},
		{name: "upward traversal", project: &BotProject{BotID: "b", Files: []AssetFile{{RelativePath: "a/../../b"}}}, wantErr: true},
		{name: "no files", project: &BotProject{BotID: "weather-bot"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.project.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordEntryRoundTrip(t *testing.T) {
	rec := JobRecord{
		Status: StatusSuccess,
		Result: PublishResult{
			ID:      "job-1",
			Time:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Message: "Publish success.",
			Log:     "line one\nline two",
			Comment: "release",
		},
	}

	entry := EntryFromRecord(rec)
	assert.Equal(t, rec.Status, entry.Status)
	assert.Equal(t, rec.Result.ID, entry.ID)

	back := entry.ToRecord()
	assert.Equal(t, rec, back)
}

func TestHistoryTableClone(t *testing.T) {
	table := HistoryTable{
		"weather-bot": {"production": {{ID: "job-1", Status: StatusSuccess}}},
	}

	clone := table.Clone()
	require.Len(t, clone["weather-bot"]["production"], 1)

	clone["weather-bot"]["production"][0].ID = "mutated"
	clone["weather-bot"]["staging"] = []HistoryEntry{{ID: "job-2"}}

	assert.Equal(t, "job-1", table["weather-bot"]["production"][0].ID)
	assert.NotContains(t, table["weather-bot"], "staging")

	var nilTable HistoryTable
	assert.NotNil(t, nilTable.Clone())
}

func TestLuisCredentialsEmpty(t *testing.T) {
	var creds *LuisCredentials
	assert.True(t, creds.Empty())
	assert.True(t, (&LuisCredentials{Region: "westus"}).Empty(), "region alone is not a credential")
	assert.False(t, (&LuisCredentials{AuthoringKey: "abc"}).Empty())
	assert.False(t, (&LuisCredentials{EndpointKey: "def"}).Empty())
}
