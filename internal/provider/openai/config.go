package openai

// Config contains OpenAI provider configuration.
// All fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey(); replaced by the user's key per session
//   - BaseURL: Maps to option.WithBaseURL()
//   - Organization: Maps to option.WithOrganization()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
//
// BillingBaseURL is the host of the dashboard billing endpoints, which live
// outside the versioned API path.
type Config struct {
	APIKey          string `env:"OPENAI_API_KEY"`
	BaseURL         string `env:"OPENAI_BASE_URL"          envDefault:"https://api.openai.com/v1"`
	BillingBaseURL  string `env:"OPENAI_BILLING_BASE_URL"  envDefault:"https://api.openai.com/"`
	Organization    string `env:"OPENAI_ORGANIZATION"`
	Timeout         int    `env:"OPENAI_TIMEOUT"           envDefault:"60"`
	MaxRetries      int    `env:"OPENAI_MAX_RETRIES"       envDefault:"0"`
	ModerationModel string `env:"OPENAI_MODERATION_MODEL"`
}
