package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wantedanchors"

	// DefaultNamespace is the main namespace of a wiki.
	DefaultNamespace = 0

	// DefaultRenderTimeout bounds one render call. Parsing a large page
	// through a busy wiki can take several seconds.
	DefaultRenderTimeout = 30 * time.Second

	// DefaultConcurrency is the number of target pages rendered at once.
	DefaultConcurrency = 8

	// DefaultListenAddress is where serve listens.
	DefaultListenAddress = ":8080"

	// DefaultUserAgent identifies wantedanchors in API requests.
	DefaultUserAgent = "wantedanchors/1.0 (+https://github.com/nao1215/wantedanchors)"
)

// Renderer names.
const (
	// RendererLocal renders target pages from the document store.
	RendererLocal = "local"

	// RendererAPI renders target pages through a wiki's api.php.
	RendererAPI = "api"
)

// Report format names returned by ReportFormat.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatWikitext = "wikitext"
)

// Config holds all configuration options for wantedanchors.
// It is populated from defaults, the config file and CLI flags, in that
// order, and passed down explicitly.
type Config struct {
	// DBDir is the directory of the SQLite document store.
	// Defaults to the XDG data directory (~/.local/share/wantedanchors on Linux).
	DBDir string

	// Namespaces lists the namespaces whose pages are scanned as origins.
	// Each namespace is an independent run.
	Namespaces []int

	// Renderer selects how target pages are rendered: RendererLocal or RendererAPI.
	Renderer string

	// APIEndpoint is the api.php URL used by the api renderer.
	APIEndpoint string

	// ProxyAddress is an optional SOCKS5 proxy ("host:port") for API requests.
	ProxyAddress string

	// UserAgent is sent with API requests.
	UserAgent string

	// Headers are added to every API request, e.g. a session cookie.
	Headers map[string]string

	// RenderTimeout bounds each render call. A render that times out
	// counts as a failure and leaves its target without anchors.
	RenderTimeout time.Duration

	// Concurrency is the number of target pages rendered at once.
	Concurrency int

	// CapitalLinks upper-cases the first letter of link targets, for wikis
	// where "foo" and "Foo" are the same page.
	CapitalLinks bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wantedanchors is searched in the current directory and
	// then in the home directory.
	ConfigFilePath string

	// JSONReport, MarkdownReport and WikitextReport select the report
	// format. They are mutually exclusive; none means text.
	JSONReport     bool
	MarkdownReport bool
	WikitextReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// SaveHistory stores each run in the database for later comparison.
	SaveHistory bool

	// ListenAddress is the address serve listens on.
	ListenAddress string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBDir:         XDGDataDir(),
		Namespaces:    []int{DefaultNamespace},
		Renderer:      RendererLocal,
		UserAgent:     DefaultUserAgent,
		RenderTimeout: DefaultRenderTimeout,
		Concurrency:   DefaultConcurrency,
		SaveHistory:   true,
		ListenAddress: DefaultListenAddress,
	}
}

// XDGDataDir returns the XDG data directory for wantedanchors.
// On Linux: ~/.local/share/wantedanchors
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wantedanchors.
// On Linux: ~/.config/wantedanchors
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Namespace returns the first configured namespace.
func (c *Config) Namespace() int {
	if len(c.Namespaces) == 0 {
		return DefaultNamespace
	}
	return c.Namespaces[0]
}

// ReportFormat returns the name of the selected report format.
func (c *Config) ReportFormat() string {
	switch {
	case c.JSONReport:
		return FormatJSON
	case c.MarkdownReport:
		return FormatMarkdown
	case c.WikitextReport:
		return FormatWikitext
	default:
		return FormatText
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.DBDir == "" {
		return ErrNoStore
	}

	for _, ns := range c.Namespaces {
		if ns < 0 {
			return ErrInvalidNamespace
		}
	}

	if c.RenderTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	formats := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.WikitextReport} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	switch c.Renderer {
	case RendererLocal:
	case RendererAPI:
		if c.APIEndpoint == "" {
			return ErrNoAPIEndpoint
		}
	default:
		return ErrUnknownRenderer
	}

	return nil
}
