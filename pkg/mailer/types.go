package mailer

import "fmt"

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Credentials authenticate one transport session.
// Each row of a campaign carries its own pair.
type Credentials struct {
	Username string
	Password string
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers  map[string]string // Custom headers
	Auth     Credentials       // Session credentials for this message
	From     string            // Sender address
	FromName string            // Sender display name
	Subject  string            // Email subject
	HTML     string            // HTML body content
	Text     string            // Plain text alternative
	To       []string          // Recipients (at least one required)
}

// Sender renders the From header value.
func (e *Email) Sender() string {
	return Recipient(e.FromName, e.From)
}
