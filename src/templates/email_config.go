package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"gopkg.in/yaml.v3"
)

// EmailConfig holds branding and copy for outbound email, loadable from a
// YAML file so deployments can re-brand without a rebuild
type EmailConfig struct {
	Branding struct {
		Name    string `yaml:"name"`
		Website string `yaml:"website"`
	} `yaml:"branding"`

	Subjects struct {
		PasswordReset string `yaml:"password_reset"`
	} `yaml:"subjects"`

	PasswordReset struct {
		Intro         string `yaml:"intro"`
		ButtonText    string `yaml:"button_text"`
		ExpiryWarning string `yaml:"expiry_warning"`
		IgnoreText    string `yaml:"ignore_text"`
	} `yaml:"password_reset"`
}

// DefaultEmailConfig returns the compiled-in configuration
func DefaultEmailConfig() *EmailConfig {
	cfg := &EmailConfig{}
	cfg.Branding.Name = "CareBridge"
	cfg.Branding.Website = "https://carebridge.example.com"
	cfg.Subjects.PasswordReset = "Password Reset Request"
	cfg.PasswordReset.Intro = "You requested a password reset. Click the link below to reset your password:"
	cfg.PasswordReset.ButtonText = "Reset Password"
	cfg.PasswordReset.ExpiryWarning = "This link will expire in 1 hour."
	cfg.PasswordReset.IgnoreText = "If you didn't request this, please ignore this email."
	return cfg
}

// LoadEmailConfig reads email configuration from a YAML file. An empty path
// returns the defaults.
func LoadEmailConfig(path string) (*EmailConfig, error) {
	if path == "" {
		return DefaultEmailConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read email config: %w", err)
	}
	cfg := DefaultEmailConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse email config: %w", err)
	}
	return cfg, nil
}

// PasswordResetData holds data for the password-reset email body
type PasswordResetData struct {
	BrandName     string
	ResetURL      string
	Intro         string
	ButtonText    string
	ExpiryWarning string
	IgnoreText    string
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
<h2>{{.BrandName}}: Password Reset</h2>
<p>{{.Intro}}</p>
<p><a href="{{.ResetURL}}">{{.ButtonText}}</a></p>
<p>{{.ExpiryWarning}}</p>
<p>{{.IgnoreText}}</p>
`))

// RenderPasswordResetEmail renders the HTML body for a reset email
func RenderPasswordResetEmail(data PasswordResetData) (string, error) {
	var buf bytes.Buffer
	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render password reset email: %w", err)
	}
	return buf.String(), nil
}
