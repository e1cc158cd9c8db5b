package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is matched by every configuration error.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError names a bad setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

var validMetrics = map[string]bool{"cosine": true, "l2": true, "inner_product": true}

// Validate checks settings that would otherwise fail late. Only the active
// backend needs an API key.
func (c AppConfig) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if c.embeddingBackend != BackendOpenAI && c.embeddingBackend != BackendVoyage {
		fail("EMBEDDING_BACKEND", "unknown backend %q", c.embeddingBackend)
	}
	if !validDBURL(c.dbURL) {
		fail("DB_URL", "unsupported database URL %q", c.dbURL)
	}
	if c.dbPool.MaxOpen() <= 0 {
		fail("DB_MAX_OPEN_CONNS", "must be positive")
	}
	if c.dbPool.MaxIdle() < 0 || c.dbPool.MaxIdle() > c.dbPool.MaxOpen() {
		fail("DB_MAX_IDLE_CONNS", "must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.dbPool.MaxLifetime() < 0 {
		fail("DB_CONN_MAX_LIFETIME", "must not be negative")
	}
	if c.port <= 0 || c.port > 65535 {
		fail("PORT", "must be between 1 and 65535")
	}

	for _, e := range []Endpoint{c.openAI, c.voyage} {
		prefix := strings.ToUpper(e.Name())
		if e.Name() == c.embeddingBackend && e.APIKey() == "" {
			fail(prefix+"_API_KEY", "required for the active backend")
		}
		if e.Model() == "" {
			fail(prefix+"_MODEL", "must not be empty")
		}
		if e.Dimension() <= 0 {
			fail(prefix+"_DIMENSION", "must be positive")
		}
		if !validMetrics[e.Metric()] {
			fail(prefix+"_METRIC", "unknown metric %q", e.Metric())
		}
		if e.MaxBatchSize() <= 0 {
			fail(prefix+"_MAX_BATCH_SIZE", "must be positive")
		}
		if e.MaxRetries() < 0 {
			fail(prefix+"_MAX_RETRIES", "must not be negative")
		}
	}

	if c.ingest.BatchSize() <= 0 {
		fail("INGEST_BATCH_SIZE", "must be positive")
	}
	if c.ingest.RequestDelay() < 0 || c.ingest.LongPause() < 0 {
		fail("INGEST_REQUEST_DELAY", "delays must not be negative")
	}
	if c.search.Limit() <= 0 || c.search.Limit() > MaxSearchLimit {
		fail("SEARCH_LIMIT", "must be between 1 and %d", MaxSearchLimit)
	}
	if c.search.Probes() < 0 {
		fail("SEARCH_PROBES", "must not be negative")
	}
	if c.search.Timeout() <= 0 {
		fail("SEARCH_TIMEOUT", "must be positive")
	}
	if c.search.TimeoutRetries() < 0 {
		fail("SEARCH_TIMEOUT_RETRIES", "must not be negative")
	}
	if c.indexLists < 0 {
		fail("INDEX_LISTS", "must not be negative")
	}
	if url := c.queryCache.RedisURL(); url != "" &&
		!strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		fail("QUERY_CACHE_REDIS_URL", "must be a redis:// or rediss:// URL")
	}

	return errors.Join(errs...)
}

func validDBURL(url string) bool {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return len(url) > len("sqlite:///")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return true
	}
	return false
}
