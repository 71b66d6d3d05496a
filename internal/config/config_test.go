package config

import "testing"

func validSettings() Settings {
	return Settings{
		Environment:      "development",
		LogLevel:         "INFO",
		OpenSearchScheme: "http",
	}
}

func TestValidateAcceptsDevelopmentDefaults(t *testing.T) {
	s := validSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	s := validSettings()
	s.LogLevel = "VERBOSE"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected an error for an unknown log level")
	}
}

func TestValidateRejectsUnknownScheme(t *testing.T) {
	s := validSettings()
	s.OpenSearchScheme = "ftp"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected an error for an unsupported opensearch scheme")
	}
}

func TestValidateRequiresAuthOutsideDevelopment(t *testing.T) {
	s := validSettings()
	s.Environment = "production"
	s.AuthEnabled = false
	if err := s.Validate(); err == nil {
		t.Fatalf("expected production without auth_enabled to be rejected")
	}
}

func TestValidateRejectsSentinelSecretOutsideDevelopment(t *testing.T) {
	s := validSettings()
	s.Environment = "production"
	s.AuthEnabled = true
	s.SecretKey = sentinelSecretKey
	if err := s.Validate(); err == nil {
		t.Fatalf("expected the sentinel secret key to be rejected in production")
	}
}

func TestValidateAcceptsProductionWithAuthAndRealSecret(t *testing.T) {
	s := validSettings()
	s.Environment = "production"
	s.AuthEnabled = true
	s.SecretKey = "a-real-secret"
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenSearchURLFormatsSchemeHostPort(t *testing.T) {
	s := Settings{OpenSearchScheme: "https", OpenSearchHost: "search.internal", OpenSearchPort: 9200}
	if got := s.OpenSearchURL(); got != "https://search.internal:9200" {
		t.Fatalf("got %q", got)
	}
}
