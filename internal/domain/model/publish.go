// Package model defines the core data types and structures used throughout the bot publishing system.
package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Publish status codes. These mirror HTTP semantics and are carried verbatim
// in job records, history entries, and API responses.
const (
	// StatusAccepted indicates a publish job was accepted and is still running.
	StatusAccepted = 202
	// StatusSuccess indicates a publish job finished successfully.
	StatusSuccess = 200
	// StatusFailed indicates a publish job failed, or a publish request was
	// rejected before a job was created.
	StatusFailed = 500
	// StatusNotFound is synthesized for status queries against a bot/profile
	// pair that has no in-flight job and no history.
	StatusNotFound = 404
)

// PublishResult is the structured payload attached to every job record and
// terminal outcome.
type PublishResult struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Log     string    `json:"log,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

// JobRecord tracks one asynchronous deploy attempt. It is created with
// StatusAccepted when a publish request is accepted and mutated exactly once
// (to StatusSuccess or StatusFailed) when the deployment finishes.
type JobRecord struct {
	Status int           `json:"status"`
	Result PublishResult `json:"result"`
}

// HistoryEntry is an immutable snapshot of a terminal publish outcome.
type HistoryEntry struct {
	Status  int       `json:"status"`
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Log     string    `json:"log,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

// ToRecord reshapes a history entry into the status/result envelope used by
// status queries.
func (e HistoryEntry) ToRecord() JobRecord {
	return JobRecord{
		Status: e.Status,
		Result: PublishResult{
			ID:      e.ID,
			Time:    e.Time,
			Message: e.Message,
			Log:     e.Log,
			Comment: e.Comment,
		},
	}
}

// EntryFromRecord snapshots a job record into an immutable history entry.
func EntryFromRecord(rec JobRecord) HistoryEntry {
	return HistoryEntry{
		Status:  rec.Status,
		ID:      rec.Result.ID,
		Time:    rec.Result.Time,
		Message: rec.Result.Message,
		Log:     rec.Result.Log,
		Comment: rec.Result.Comment,
	}
}

// HistoryTable is the persisted snapshot layout: bot ID -> profile name ->
// ordered (newest-first) history entries. It is loaded wholesale at startup
// and rewritten wholesale on every update when snapshot persistence is on.
type HistoryTable map[string]map[string][]HistoryEntry

// Clone returns a deep copy of the table. Entries are value types, so copying
// the slices is sufficient.
func (t HistoryTable) Clone() HistoryTable {
	if t == nil {
		return HistoryTable{}
	}
	out := make(HistoryTable, len(t))
	for botID, profiles := range t {
		cp := make(map[string][]HistoryEntry, len(profiles))
		for profile, entries := range profiles {
			cp[profile] = append([]HistoryEntry(nil), entries...)
		}
		out[botID] = cp
	}
	return out
}

// LuisCredentials carries optional language-understanding credentials passed
// through to the deployment orchestrator.
type LuisCredentials struct {
	AuthoringKey    string `json:"authoringKey,omitempty"`
	AuthoringRegion string `json:"authoringRegion,omitempty"`
	EndpointKey     string `json:"endpointKey,omitempty"`
	Region          string `json:"region,omitempty"`
}

// Empty reports whether no credential fields are set.
func (c *LuisCredentials) Empty() bool {
	return c == nil || (c.AuthoringKey == "" && c.EndpointKey == "")
}

// PublishConfig is the per-request publishing target configuration. It
// identifies the profile, the cloud subscription and environment, and carries
// the provisioning metadata and access credential the deploy needs.
type PublishConfig struct {
	// Name is the publishing profile name (e.g. "production").
	Name string `json:"name"`

	Environment    string `json:"environment"`
	SubscriptionID string `json:"subscriptionID"`
	Location       string `json:"location,omitempty"`

	// ProvisionPassword salts the resource key so two profiles that differ
	// only in credentials stage into distinct directories.
	ProvisionPassword string `json:"provisionPassword,omitempty"`

	LUIS *LuisCredentials `json:"luis,omitempty"`

	// Provision is the resource metadata produced by a prior provisioning
	// step. Publishing is rejected when it is absent.
	Provision json.RawMessage `json:"provision,omitempty"`

	// AccessToken is the cloud access credential used by the deployment.
	AccessToken string `json:"accessToken,omitempty"`

	// Settings holds optional runtime setting overrides merged into the
	// staged settings file.
	Settings json.RawMessage `json:"settings,omitempty"`

	// Comment is an optional operator note carried into the history entry.
	Comment string `json:"comment,omitempty"`
}

// Validate checks the fields publishing cannot proceed without. Credential
// and provisioning checks are deliberately NOT part of Validate: their
// absence produces a recorded failure outcome, not a request error.
func (c *PublishConfig) Validate() error {
	if c == nil {
		return errors.New("publish config is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("profile name is required")
	}
	if strings.TrimSpace(c.Environment) == "" {
		return errors.New("environment is required")
	}
	return nil
}

// AssetFile is one declarative asset blob staged to disk.
type AssetFile struct {
	RelativePath string `json:"relativePath"`
	Content      string `json:"content"`
}

// BotProject is the deployable unit: a bot's declarative assets plus settings
// and an optional ejected runtime location.
type BotProject struct {
	BotID    string          `json:"botId"`
	Files    []AssetFile     `json:"files"`
	Settings json.RawMessage `json:"settings,omitempty"`

	// RuntimePath points at a custom ("ejected") runtime. When empty the
	// default runtime template is used.
	RuntimePath string `json:"runtimePath,omitempty"`
}

// Validate validates the BotProject fields.
func (p *BotProject) Validate() error {
	if p == nil {
		return errors.New("bot project is required")
	}
	if strings.TrimSpace(p.BotID) == "" {
		return errors.New("bot id is required")
	}
	for i := range p.Files {
		rel := p.Files[i].RelativePath
		if rel == "" {
			return errors.New("asset file relative path is required")
		}
		if strings.HasPrefix(rel, "/") || strings.Contains(rel, "..") {
			return errors.New("asset file path must be relative and must not traverse upward")
		}
	}
	return nil
}
