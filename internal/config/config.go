// Package config loads the application settings that are not owned by a
// single package: listen port, token signing, admin access and page metadata.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GlitchDefaultURL is the placeholder SEO url that is replaced with the
// project domain.
const GlitchDefaultURL = "glitch-default"

// SEO is the page metadata rendered into the HTML views.
type SEO struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url"`
	Image       string `yaml:"image" json:"image"`
}

// CSP lists the extra origins the Content-Security-Policy allows on top of
// 'self'. The static client imports its modules from a CDN.
type CSP struct {
	ScriptSrc  []string `yaml:"script_src"`
	ConnectSrc []string `yaml:"connect_src"`
	ImgSrc     []string `yaml:"img_src"`
}

// Header renders the policy.
func (p CSP) Header() string {
	directive := func(name string, extra []string) string {
		return name + " " + strings.Join(append([]string{"'self'"}, extra...), " ") + "; "
	}
	return "default-src 'self'; " +
		directive("script-src", p.ScriptSrc) +
		directive("connect-src", p.ConnectSrc) +
		directive("img-src", p.ImgSrc) +
		"object-src 'none'; base-uri 'self';"
}

// Config is the application configuration.
type Config struct {
	Port          int           `yaml:"port"`
	JWTSecret     string        `yaml:"jwt_secret_key"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminKey      string        `yaml:"admin_key"`
	AdminKeyHash  string        `yaml:"admin_key_hash"`
	StaticDir     string        `yaml:"static_dir"`
	ProjectDomain string        `yaml:"project_domain"`
	SEO           SEO           `yaml:"seo"`
	CSP           CSP           `yaml:"csp"`
}

func Default() *Config {
	return &Config{
		Port:      8431,
		TokenTTL:  14 * 24 * time.Hour,
		StaticDir: "public",
		SEO: SEO{
			Title:       "SpotMaps",
			Description: "Sign in with an emailed code and vote for your favourite spot.",
			URL:         GlitchDefaultURL,
		},
		CSP: CSP{
			ScriptSrc:  []string{"https://cdn.skypack.dev"},
			ConnectSrc: []string{"https://cdn.skypack.dev"},
			ImgSrc:     []string{"data:", "https://cdn.glitch.global", "https://cdn.glitch.com"},
		},
	}
}

// FromEnv returns the defaults overridden by environment variables.
func FromEnv() (*Config, error) {
	return Load("")
}

// Load reads the YAML file at path when non-empty, then applies environment
// overrides. Environment variables win over file values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SEO.URL = ResolveSEOURL(cfg.SEO.URL, cfg.ProjectDomain)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = p
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.TokenTTL = d
	}
	setString(&c.JWTSecret, "JWT_SECRET_KEY")
	setString(&c.AdminKey, "ADMIN_KEY")
	setString(&c.AdminKeyHash, "ADMIN_KEY_HASH")
	setString(&c.StaticDir, "STATIC_DIR")
	setString(&c.ProjectDomain, "PROJECT_DOMAIN")
	setString(&c.SEO.URL, "SEO_URL")
	setList(&c.CSP.ScriptSrc, "CSP_SCRIPT_SRC")
	setList(&c.CSP.ConnectSrc, "CSP_CONNECT_SRC")
	setList(&c.CSP.ImgSrc, "CSP_IMG_SRC")
	return nil
}

// setList replaces dst with the space or comma separated origins in key.
// A value of "none" clears the list.
func setList(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if v == "none" {
		*dst = nil
		return
	}
	*dst = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks the values that cannot be defaulted at use.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// AdminConfigured reports whether POST /reset can ever succeed.
func (c *Config) AdminConfigured() bool {
	return c.AdminKey != "" || c.AdminKeyHash != ""
}

// ResolveSEOURL replaces the glitch placeholder with the project's glitch.me url.
func ResolveSEOURL(url, projectDomain string) string {
	if url == GlitchDefaultURL {
		return fmt.Sprintf("https://%s.glitch.me", projectDomain)
	}
	return url
}
