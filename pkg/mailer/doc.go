// Package mailer renders per-row email content and hands it to a transport.
//
// The package separates message delivery (Sender implementations such as
// mailer/smtp and mailer/resend) from template rendering, so a campaign can
// switch transports without touching templates.
//
// # Architecture
//
//   - Sender: interface that transports implement; one session per message
//   - Renderer: loads a template file and substitutes placeholders
//   - Mailer: turns a recipients.SendJob into an Email and sends it
//
// # Templates
//
// A template is an HTML file (or a Markdown file ending in ".md") containing
// the tokens {sal} and {signature}. Tokens are replaced literally with the
// row's salutation and signature:
//
//	<p>{sal},</p>
//	<p>We have news for you.</p>
//	<p>{signature}</p>
//
// If a template contains neither token, a "Thanks & Regards" block with the
// signature is appended instead. A template may start with YAML frontmatter
// whose Subject is used when the row has no subject of its own:
//
//	---
//	Subject: Quarterly update
//	---
//	<p>{sal},</p>
//
// # Usage
//
//	renderer := mailer.NewRenderer(mailer.RendererConfig{})
//	m := mailer.New(smtp.New(smtp.Config{Host: "smtp.gmail.com", Port: 587}), renderer, mailer.Config{})
//
//	if err := m.Send(ctx, job); err != nil {
//		switch mailer.KindOf(err) {
//		case mailer.KindTemplate:
//			// missing or unreadable template file
//		case mailer.KindAuth:
//			// wrong app password
//		}
//	}
//
// # Errors
//
// Render failures are *TemplateError (wrapping ErrTemplateNotFound,
// ErrTemplateUnreadable, ErrInvalidFrontmatter or ErrRenderFailed).
// Delivery failures are *SendError whose Kind is one of KindAuth,
// KindTransport, KindTimeout or KindSend; errors.Is matches the
// corresponding ErrAuthFailed, ErrTransport, ErrTimeout or ErrSendFailed.
package mailer
