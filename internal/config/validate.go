package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Message)
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Prismic.Endpoint == "" {
		errs = append(errs, &ValidationError{Field: "prismic.endpoint", Message: "is required"})
	} else if err := validateAbsoluteURL(c.Prismic.Endpoint); err != nil {
		errs = append(errs, &ValidationError{Field: "prismic.endpoint", Message: err.Error()})
	}
	if c.Prismic.DocumentType == "" {
		errs = append(errs, &ValidationError{Field: "prismic.document_type", Message: "is required"})
	}
	if c.Prismic.PageSize < 1 || c.Prismic.PageSize > 100 {
		errs = append(errs, &ValidationError{Field: "prismic.page_size", Message: "must be between 1 and 100"})
	}
	if c.Prismic.Timeout <= 0 {
		errs = append(errs, &ValidationError{Field: "prismic.timeout", Message: "must be positive"})
	}

	if c.Site.BaseURL != "" {
		if err := validateAbsoluteURL(c.Site.BaseURL); err != nil {
			errs = append(errs, &ValidationError{Field: "site.base_url", Message: err.Error()})
		}
	}
	if _, err := language.Parse(c.Site.Locale); err != nil {
		errs = append(errs, &ValidationError{Field: "site.locale", Message: fmt.Sprintf("is not a BCP 47 tag: %v", err)})
	}
	if c.Site.Revalidate < 0 {
		errs = append(errs, &ValidationError{Field: "site.revalidate", Message: "must not be negative"})
	}

	if c.Server.Addr == "" {
		errs = append(errs, &ValidationError{Field: "server.addr", Message: "is required"})
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, &ValidationError{Field: "server.shutdown_timeout", Message: "must be positive"})
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, &ValidationError{Field: "log.level", Message: "must be one of: trace, debug, info, warn, error, fatal, panic"})
	}

	return errors.Join(errs...)
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a URL: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}
