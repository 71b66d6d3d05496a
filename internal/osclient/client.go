// Package osclient builds the shared OpenSearch client used by the query
// executor, state manager, and history recorder. It plays the role the
// teacher's internal/globals/utils.go NewKubernetesClient played for
// Kubernetes: construct the one external client the rest of the engine
// shares, return it (and an error) to the caller instead of panicking.
package osclient

import (
	"crypto/tls"
	"fmt"
	"net/http"

	opensearch "github.com/opensearch-project/opensearch-go/v2"

	"prosimcorp.com/alerting/internal/config"
)

// New returns a connection-pooled OpenSearch client for settings.
func New(cfg *config.Settings) (*opensearch.Client, error) {
	transport := &http.Transport{}
	if cfg.OpenSearchScheme == "https" {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.OpenSearchVerifyCerts}
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL()},
		Username:  cfg.OpenSearchUser,
		Password:  cfg.OpenSearchPassword,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("building opensearch client: %w", err)
	}
	return client, nil
}
