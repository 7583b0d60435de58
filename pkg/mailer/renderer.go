package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Default placeholder tokens. They are replaced literally, without escaping.
const (
	DefaultSalutationToken = "{sal}"
	DefaultSignatureToken  = "{signature}"
)

// signatureFallback is appended when a template contains neither token.
const signatureFallback = "<br><br>Thanks &amp; Regards,<br>%s"

// RendererConfig configures the renderer.
type RendererConfig struct {
	BaseDir         string // Resolves relative template paths. Default: working directory
	SalutationToken string // Default: "{sal}"
	SignatureToken  string // Default: "{signature}"
	NoFallback      bool   // Disable the appended signature block
}

// Renderer loads per-row template files and substitutes placeholders.
//
// Templates are HTML files, or Markdown files (".md") that are converted to
// HTML after substitution. Either may start with YAML frontmatter.
type Renderer struct {
	readFile func(name string) ([]byte, error)
	md       goldmark.Markdown
	text     *bluemonday.Policy

	// Parsed files by path; stores structure, not rendered output.
	cache map[string]*Template
	cfg   RendererConfig

	mu sync.RWMutex
}

// RenderResult contains the rendered HTML, plain text, and extracted metadata.
type RenderResult struct {
	Metadata map[string]any
	Subject  string // From frontmatter, may be empty
	HTML     string
	Text     string
}

// NewRenderer creates a renderer reading templates from the local filesystem.
func NewRenderer(cfg RendererConfig) *Renderer {
	r := newRenderer(cfg)
	r.readFile = func(name string) ([]byte, error) {
		if !filepath.IsAbs(name) && cfg.BaseDir != "" {
			name = filepath.Join(cfg.BaseDir, name)
		}
		return os.ReadFile(name)
	}
	return r
}

// NewRendererFS creates a renderer reading templates from filesystem.
// Absolute template paths are resolved relative to the root of filesystem.
func NewRendererFS(filesystem fs.FS, cfg RendererConfig) *Renderer {
	r := newRenderer(cfg)
	r.readFile = func(name string) ([]byte, error) {
		name = path.Clean(filepath.ToSlash(name))
		if !path.IsAbs(name) && cfg.BaseDir != "" {
			name = path.Join(filepath.ToSlash(cfg.BaseDir), name)
		}
		return fs.ReadFile(filesystem, strings.TrimPrefix(name, "/"))
	}
	return r
}

func newRenderer(cfg RendererConfig) *Renderer {
	if cfg.SalutationToken == "" {
		cfg.SalutationToken = DefaultSalutationToken
	}
	if cfg.SignatureToken == "" {
		cfg.SignatureToken = DefaultSignatureToken
	}
	return &Renderer{
		cfg:   cfg,
		md:    goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
		text:  bluemonday.StrictPolicy(),
		cache: make(map[string]*Template),
	}
}

// Render loads the template at file and fills in salutation and signature.
// Load failures are returned as *TemplateError.
func (r *Renderer) Render(file, salutation, signature string) (*RenderResult, error) {
	tmpl, err := r.getTemplate(file)
	if err != nil {
		return nil, err
	}

	body := tmpl.Body
	hasTokens := strings.Contains(body, r.cfg.SalutationToken) || strings.Contains(body, r.cfg.SignatureToken)
	body = strings.NewReplacer(
		r.cfg.SalutationToken, salutation,
		r.cfg.SignatureToken, signature,
	).Replace(body)

	if isMarkdown(file) {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(body), &buf); err != nil {
			return nil, &TemplateError{Path: file, Err: fmt.Errorf("%w: %v", ErrRenderFailed, err)}
		}
		body = buf.String()
	}

	if !hasTokens && !r.cfg.NoFallback {
		body += fmt.Sprintf(signatureFallback, signature)
	}

	return &RenderResult{
		Metadata: tmpl.Metadata,
		Subject:  tmpl.Subject(),
		HTML:     body,
		Text:     r.plainText(body),
	}, nil
}

// getTemplate returns a cached template or reads, parses and caches it.
func (r *Renderer) getTemplate(file string) (*Template, error) {
	r.mu.RLock()
	if cached, ok := r.cache[file]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := r.cache[file]; ok {
		return cached, nil
	}

	if strings.TrimSpace(file) == "" {
		return nil, &TemplateError{Path: file, Err: ErrTemplateNotFound}
	}

	content, err := r.readFile(file)
	if err != nil {
		sentinel := ErrTemplateUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			sentinel = ErrTemplateNotFound
		}
		return nil, &TemplateError{Path: file, Err: fmt.Errorf("%w: %v", sentinel, err)}
	}

	tmpl, err := ParseTemplate(content)
	if err != nil {
		return nil, &TemplateError{Path: file, Err: err}
	}

	r.cache[file] = tmpl
	return tmpl, nil
}

var (
	breakTags  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</h[1-6]>|</li>|</tr>`)
	blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// plainText strips markup from body for the text/plain alternative.
func (r *Renderer) plainText(body string) string {
	s := breakTags.ReplaceAllString(body, "$0\n")
	s = html.UnescapeString(r.text.Sanitize(s))
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func isMarkdown(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".md" || ext == ".markdown"
}
