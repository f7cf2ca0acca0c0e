package payments

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"caseflow/pkg/errors"
	"caseflow/pkg/migrations"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	if os.Getenv("TESTCONTAINERS_RYUK_DISABLED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	}

	container, err := postgresmodule.Run(ctx, "postgres:15",
		postgresmodule.WithDatabase("caseflow_test"),
		postgresmodule.WithUsername("test_user"),
		postgresmodule.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp").WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	conn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", conn)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, migrations.RunPostgres(db, "caseflow_test"))

	return NewRepository(db)
}

func TestRepositoryPaymentRoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	payment := &Payment{
		ID:                uuid.NewString(),
		EnvelopeID:        "env-1",
		CaseRef:           "case-1",
		IsExceptionRecord: false,
		POBox:             "PO 123",
		Jurisdiction:      "PROBATE",
		Service:           "probate",
		ControlNumbers:    []string{"123456", "654321"},
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.SavePayment(ctx, payment))

	loaded, err := repo.FindPaymentByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.EnvelopeID, loaded.EnvelopeID)
	assert.Equal(t, payment.ControlNumbers, loaded.ControlNumbers)
	assert.Equal(t, StatusPending, loaded.Status)

	// Terminal save hits the same row.
	payment.Status = StatusFailed
	payment.StatusMessage = "processor down"
	payment.UpdatedAt = now.Add(time.Second)
	require.NoError(t, repo.SavePayment(ctx, payment))

	failed, err := repo.FindPaymentsByStatus(ctx, StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, payment.ID, failed[0].ID)
	assert.Equal(t, "processor down", failed[0].StatusMessage)
}

func TestRepositoryUpdatePaymentRoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	payment := &UpdatePayment{
		ID:                 uuid.NewString(),
		EnvelopeID:         "env-2",
		Jurisdiction:       "PROBATE",
		ExceptionRecordRef: "er-1",
		NewCaseRef:         "case-2",
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, repo.SaveUpdatePayment(ctx, payment))

	payment.Status = StatusComplete
	require.NoError(t, repo.SaveUpdatePayment(ctx, payment))

	loaded, err := repo.FindUpdatePaymentByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, loaded.Status)
	assert.Equal(t, "er-1", loaded.ExceptionRecordRef)

	failed, err := repo.FindUpdatePaymentsByStatus(ctx, StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestRepositoryPaymentNotFound(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.FindPaymentByID(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
