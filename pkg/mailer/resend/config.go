package resend

// Config holds Resend email provider configuration.
// Embed this in your app config for env parsing with caarlos0/env.
//
// The Resend API authenticates with one account-wide key, so row passwords
// are ignored and each row's from_email must be a verified sender domain.
type Config struct {
	APIKey string `env:"API_KEY"`
}
