package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
)

func TestSetup_AllDisabledIsNoop(t *testing.T) {
	stack, err := Setup(config.Config{
		ServiceName:    "victory-fairy-scheduler",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}, logging.NewNop())
	require.NoError(t, err)

	assert.Empty(t, stack.PprofAddr())
	assert.NoError(t, stack.Shutdown(context.Background()))
}

func TestSetup_UptraceWithoutDSNStaysOff(t *testing.T) {
	stack, err := Setup(config.Config{UptraceEnabled: true}, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, stack.tracing)
	assert.NoError(t, stack.Shutdown(context.Background()))
}

func TestSetup_PprofServesProfilerIndex(t *testing.T) {
	stack, err := Setup(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Shutdown(context.Background()) })

	addr := stack.PprofAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/debug/pprof/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetup_PprofAddressInUseFails(t *testing.T) {
	first, err := Setup(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, err = Setup(config.Config{PprofEnabled: true, PprofAddr: first.PprofAddr()}, logging.NewNop())
	assert.Error(t, err)
}

func TestNilStackShutdown(t *testing.T) {
	var stack *Stack
	assert.NoError(t, stack.Shutdown(context.Background()))
}
