package registrar

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Requires docker. Set MACKAY_SMTP_IT=1 to run.
func TestNotifySuccessDelivers(t *testing.T) {
	if os.Getenv("MACKAY_SMTP_IT") == "" {
		t.Skip("set MACKAY_SMTP_IT=1 to run the smtp integration test")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1090:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, smtp.Terminate(context.Background()))
	}()

	notifier := NewEmailNotifier(SmtpConfig{
		Server: "localhost",
		Port:   1025,
		Sender: "registrar@example.com",
	}, "parent@example.com")

	err = notifier.NotifySuccess(context.Background(), testBooking())
	require.NoError(t, err)
}
