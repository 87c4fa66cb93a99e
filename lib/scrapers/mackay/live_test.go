package mackay

import (
	"context"
	"testing"

	devenv "mackay-backend/dev/env"
	"mackay-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// Exercises session bootstrap against a real portal. Skipped unless
// dev/.state/mackay_config.json5 exists.
func TestLiveSession(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/mackay")
	defer cleanup()

	config, err := devenv.GetStateConfig[devenv.MackayTestConfig]("mackay_config.json5")
	if err != nil {
		t.Skipf("no portal config in dev state: %v", err)
	}

	client, err := NewClient(ClientOptions{BaseUrl: config.BaseUrl})
	require.NoError(t, err)
	require.NoError(t, client.Initialize(context.Background()))
}
