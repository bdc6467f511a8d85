package testutil

import (
	"encoding/json"

	"github.com/botstack/publisher/internal/domain/model"
)

// PublishConfigBuilder provides a fluent interface for building PublishConfig
// values for testing.
type PublishConfigBuilder struct {
	cfg model.PublishConfig
}

// NewPublishConfig creates a PublishConfigBuilder with sensible defaults.
func NewPublishConfig() *PublishConfigBuilder {
	return &PublishConfigBuilder{
		cfg: model.PublishConfig{
			Name:           "production",
			Environment:    "composer",
			SubscriptionID: "00000000-0000-0000-0000-000000000001",
			Location:       "westus",
			AccessToken:    "test-token",
			Provision:      json.RawMessage(`{"botName":"weather-bot"}`),
		},
	}
}

// WithName sets the publishing profile name.
func (b *PublishConfigBuilder) WithName(name string) *PublishConfigBuilder {
	b.cfg.Name = name
	return b
}

// WithEnvironment sets the target environment.
func (b *PublishConfigBuilder) WithEnvironment(env string) *PublishConfigBuilder {
	b.cfg.Environment = env
	return b
}

// WithSubscriptionID sets the subscription.
func (b *PublishConfigBuilder) WithSubscriptionID(id string) *PublishConfigBuilder {
	b.cfg.SubscriptionID = id
	return b
}

// WithAccessToken sets the access token. Pass the empty string to simulate a
// request that never authenticated.
func (b *PublishConfigBuilder) WithAccessToken(token string) *PublishConfigBuilder {
	b.cfg.AccessToken = token
	return b
}

// WithProvisionString sets the provision metadata from a JSON string. Pass
// the empty string to simulate a profile that was never provisioned.
func (b *PublishConfigBuilder) WithProvisionString(raw string) *PublishConfigBuilder {
	if raw == "" {
		b.cfg.Provision = nil
		return b
	}
	b.cfg.Provision = json.RawMessage(raw)
	return b
}

// WithProvisionPassword sets the provision password.
func (b *PublishConfigBuilder) WithProvisionPassword(pw string) *PublishConfigBuilder {
	b.cfg.ProvisionPassword = pw
	return b
}

// WithLUIS sets explicit LUIS credentials.
func (b *PublishConfigBuilder) WithLUIS(creds *model.LuisCredentials) *PublishConfigBuilder {
	b.cfg.LUIS = creds
	return b
}

// WithSettingsString sets the publish-time settings overlay from JSON.
func (b *PublishConfigBuilder) WithSettingsString(raw string) *PublishConfigBuilder {
	b.cfg.Settings = json.RawMessage(raw)
	return b
}

// WithComment sets the operator comment.
func (b *PublishConfigBuilder) WithComment(comment string) *PublishConfigBuilder {
	b.cfg.Comment = comment
	return b
}

// Build returns the constructed PublishConfig.
func (b *PublishConfigBuilder) Build() *model.PublishConfig {
	cfg := b.cfg
	return &cfg
}

// BotProjectBuilder provides a fluent interface for building BotProject
// values for testing.
type BotProjectBuilder struct {
	project model.BotProject
}

// NewBotProject creates a BotProjectBuilder with sensible defaults.
func NewBotProject() *BotProjectBuilder {
	return &BotProjectBuilder{
		project: model.BotProject{
			BotID: "weather-bot",
			Files: []model.AssetFile{
				{RelativePath: "dialogs/weather.dialog", Content: `{"$kind":"Microsoft.AdaptiveDialog"}`},
				{RelativePath: "lg/common.lg", Content: "# Greeting\n- Hello!"},
			},
			Settings: json.RawMessage(`{"defaultLanguage":"en-us"}`),
		},
	}
}

// WithBotID sets the bot identifier.
func (b *BotProjectBuilder) WithBotID(id string) *BotProjectBuilder {
	b.project.BotID = id
	return b
}

// WithFiles replaces the asset file set.
func (b *BotProjectBuilder) WithFiles(files ...model.AssetFile) *BotProjectBuilder {
	b.project.Files = files
	return b
}

// WithFile appends a single asset file.
func (b *BotProjectBuilder) WithFile(path, content string) *BotProjectBuilder {
	b.project.Files = append(b.project.Files, model.AssetFile{RelativePath: path, Content: content})
	return b
}

// WithSettingsString sets the project settings from JSON.
func (b *BotProjectBuilder) WithSettingsString(raw string) *BotProjectBuilder {
	b.project.Settings = json.RawMessage(raw)
	return b
}

// WithRuntimePath sets the project-local runtime directory.
func (b *BotProjectBuilder) WithRuntimePath(path string) *BotProjectBuilder {
	b.project.RuntimePath = path
	return b
}

// Build returns the constructed BotProject.
func (b *BotProjectBuilder) Build() *model.BotProject {
	project := b.project
	return &project
}
