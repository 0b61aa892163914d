package config

import (
	"fmt"
	"maps"
	"time"
)

// WikiConfig holds settings for one wiki, selected by its API endpoint.
type WikiConfig struct {
	// Cookie is sent with every API request, e.g. a session for a private wiki.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in API requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// CapitalLinks enables first-letter case folding of link targets.
	CapitalLinks bool `yaml:"capitalLinks,omitempty"`
}

// File represents the structure of the .wantedanchors configuration file.
type File struct {
	// DBDir overrides the default database directory.
	DBDir string `yaml:"db_dir,omitempty"`

	// Namespaces overrides the scanned namespaces.
	Namespaces []int `yaml:"namespaces,omitempty"`

	// Renderer is "local" or "api".
	Renderer string `yaml:"renderer,omitempty"`

	// APIEndpoint is the api.php URL for the api renderer.
	APIEndpoint string `yaml:"api_endpoint,omitempty"`

	// ProxyAddress is a SOCKS5 proxy for API requests.
	ProxyAddress string `yaml:"proxy,omitempty"`

	// RenderTimeout is a Go duration string such as "30s".
	RenderTimeout string `yaml:"render_timeout,omitempty"`

	// Concurrency is the number of renders run at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Wikis maps API endpoints to their settings.
	Wikis map[string]WikiConfig `yaml:"wikis,omitempty"`

	// Defaults applies to every wiki unless overridden in Wikis.
	Defaults WikiConfig `yaml:"defaults,omitempty"`
}

// GetWikiConfig returns the settings for endpoint, merged over the defaults.
func (cf *File) GetWikiConfig(endpoint string) WikiConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	wiki, ok := cf.Wikis[endpoint]
	if !ok {
		return result
	}
	if wiki.Cookie != "" {
		result.Cookie = wiki.Cookie
	}
	if wiki.UserAgent != "" {
		result.UserAgent = wiki.UserAgent
	}
	if wiki.CapitalLinks {
		result.CapitalLinks = true
	}
	if len(wiki.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, wiki.Headers)
	}

	return result
}

// Apply copies the settings present in the file onto c. Flags given on
// the command line are applied afterwards by the caller and win.
func (cf *File) Apply(c *Config) error {
	if cf.DBDir != "" {
		c.DBDir = cf.DBDir
	}
	if len(cf.Namespaces) > 0 {
		c.Namespaces = cf.Namespaces
	}
	if cf.Renderer != "" {
		c.Renderer = cf.Renderer
	}
	if cf.APIEndpoint != "" {
		c.APIEndpoint = cf.APIEndpoint
	}
	if cf.ProxyAddress != "" {
		c.ProxyAddress = cf.ProxyAddress
	}
	if cf.RenderTimeout != "" {
		d, err := time.ParseDuration(cf.RenderTimeout)
		if err != nil {
			return fmt.Errorf("invalid render_timeout %q: %w", cf.RenderTimeout, err)
		}
		c.RenderTimeout = d
	}
	if cf.Concurrency != 0 {
		c.Concurrency = cf.Concurrency
	}

	wiki := cf.GetWikiConfig(c.APIEndpoint)
	if wiki.UserAgent != "" {
		c.UserAgent = wiki.UserAgent
	}
	if wiki.CapitalLinks {
		c.CapitalLinks = true
	}
	if len(wiki.Headers) > 0 || wiki.Cookie != "" {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		maps.Copy(c.Headers, wiki.Headers)
		if wiki.Cookie != "" {
			c.Headers["Cookie"] = wiki.Cookie
		}
	}
	return nil
}
