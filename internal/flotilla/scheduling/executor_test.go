package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flotillaproject/flotilla/pkg/api"
)

func TestSimulatedExecutor_RunsToCompletion(t *testing.T) {
	executor := NewSimulatedExecutor(3, time.Millisecond)
	err := executor.Execute(context.Background(), &api.Deployment{Id: "d"})
	assert.NoError(t, err)
}

func TestSimulatedExecutor_StopsOnCancel(t *testing.T) {
	executor := NewSimulatedExecutor(1000, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- executor.Execute(ctx, &api.Deployment{Id: "d"})
	}()
	cancel()

	select {
	case err := <-result:
		require.Error(t, err)
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not stop after cancellation")
	}
}
