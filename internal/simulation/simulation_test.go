package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/coordinator"
	"github.com/cloe-engine/cloe/internal/model"
	"github.com/cloe-engine/cloe/internal/stack"
	"github.com/cloe-engine/cloe/internal/trigger"
)

func newTestStack(t *testing.T, root confval.Map) *stack.Stack {
	t.Helper()
	st := stack.New(nil, nil, nil, nil)
	st.Conf().Merge(root, "test")
	return st
}

func TestReadSyncParamsDefaults(t *testing.T) {
	st := newTestStack(t, confval.Map{})
	stepWidth, rtf := readSyncParams(st)
	assert.Equal(t, 20*time.Millisecond, stepWidth)
	assert.Equal(t, 1.0, rtf)
}

func TestReadSyncParamsModelStepWidthNanoseconds(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"simulation": confval.Map{
			"model_step_width": confval.Int(20_000_000),
			"realtime_factor":  confval.Float(2.5),
		},
	})
	stepWidth, rtf := readSyncParams(st)
	assert.Equal(t, 20*time.Millisecond, stepWidth)
	assert.Equal(t, 2.5, rtf)
}

func TestReadControllerRetryParams(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"simulation": confval.Map{
			"controller_retry_limit":       confval.Int(1000),
			"controller_retry_sleep":       confval.Int(5),
			"abort_on_controller_failure":  confval.Bool(true),
		},
	})
	limit, sleepMillis, abort := readControllerRetryParams(st)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, 5, sleepMillis)
	assert.True(t, abort)
}

func TestReadKeepAliveAndIgnoreDuplicates(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"engine": confval.Map{
			"triggers_ignore_duplicates": confval.Bool(true),
		},
		"simulation": confval.Map{
			"keep_alive": confval.Bool(true),
		},
	})
	assert.True(t, readIgnoreDuplicates(st))
	assert.True(t, readKeepAlive(st))
}

func TestLoadConfiguredTriggersQueuesEachEntry(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"triggers": confval.Array{
			confval.Map{"event": confval.String("start"), "action": confval.String("succeed")},
			confval.Map{"event": confval.String("time=1.0"), "action": confval.String("stop")},
		},
	})
	factory := trigger.NewFactory()
	coord := coordinator.New(false, func(string) {})

	require.NoError(t, loadConfiguredTriggers(st, factory, coord))
	assert.Equal(t, 2, coord.QueueLen())
}

func TestLoadConfiguredTriggersDropsOptionalOnError(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"triggers": confval.Array{
			confval.Map{"event": confval.String("no_such_event"), "action": confval.String("succeed"), "optional": confval.Bool(true)},
		},
	})
	factory := trigger.NewFactory()
	coord := coordinator.New(false, func(string) {})

	require.NoError(t, loadConfiguredTriggers(st, factory, coord))
	assert.Equal(t, 0, coord.QueueLen())
}

func TestLoadConfiguredTriggersFailsOnMandatoryError(t *testing.T) {
	st := newTestStack(t, confval.Map{
		"triggers": confval.Array{
			confval.Map{"event": confval.String("no_such_event"), "action": confval.String("succeed")},
		},
	})
	factory := trigger.NewFactory()
	coord := coordinator.New(false, func(string) {})

	err := loadConfiguredTriggers(st, factory, coord)
	assert.Error(t, err)
}

func TestAsSimulatorDirectEmbed(t *testing.T) {
	sim := model.NewSimulator("nop")
	got, ok := asSimulator(&embeddedSimulator{Simulator: sim})
	assert.True(t, ok)
	assert.Same(t, sim, got)
}

// embeddedSimulator is a minimal model.Model whose only Simulator access
// is through direct struct embedding, exercising asSimulator's fallback
// type assertion path (as opposed to an AsSimulator() accessor).
type embeddedSimulator struct {
	*model.Simulator
}

func (e *embeddedSimulator) Connect(ctx context.Context) error                 { return nil }
func (e *embeddedSimulator) Enroll(r model.Registrar) error                    { return nil }
func (e *embeddedSimulator) Start(ctx context.Context, sync model.Sync) error  { return nil }
func (e *embeddedSimulator) Process(ctx context.Context, sync model.Sync) (time.Duration, error) {
	return sync.Time(), nil
}
func (e *embeddedSimulator) Stop(ctx context.Context, sync model.Sync) error { return nil }
func (e *embeddedSimulator) Disconnect(ctx context.Context) error           { return nil }
func (e *embeddedSimulator) Pause(ctx context.Context) error                { return nil }
func (e *embeddedSimulator) Resume(ctx context.Context) error               { return nil }
func (e *embeddedSimulator) Reset(ctx context.Context) error                { return nil }
func (e *embeddedSimulator) Abort(ctx context.Context) error                { return nil }

var _ model.Model = (*embeddedSimulator)(nil)
