package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
)

func TestLoadSkipsInvalidEntriesButLoadsValidOnes(t *testing.T) {
	name := "test-loader-tcp"
	Discover(Descriptor{
		Name:       name,
		SetupInput: func(map[string]interface{}) (interface{}, error) { return "bound", nil },
	})
	logger := ffwdtest.NewLogger()

	setups := Load(CapabilityInput, []Config{
		{Type: "", Name: name},                     // missing type
		{Type: "input", Name: "test-loader-ghost"},  // never discovered
		{Type: "input", Name: name, Options: nil},   // valid: see note below
		{Type: "input", Name: name, Options: map[string]interface{}{"port": 2003}},
	}, logger)

	// The third entry above actually requests CapabilityInput, which the
	// descriptor has, so it loads too; reuse a distinct descriptor to
	// exercise the "lacks capability" rejection explicitly.
	outputOnly := "test-loader-output-only"
	Discover(Descriptor{
		Name:        outputOnly,
		SetupOutput: func(map[string]interface{}) (interface{}, error) { return "connected", nil },
	})
	setups = Load(CapabilityInput, []Config{
		{Type: "input", Name: outputOnly},
	}, logger)
	assert.Len(t, setups, 0)
	assert.NotEmpty(t, logger.Entries())

	logger2 := ffwdtest.NewLogger()
	setups = Load(CapabilityInput, []Config{
		{Type: "", Name: name},
		{Type: "input", Name: "test-loader-ghost"},
		{Type: "input", Name: name, Options: map[string]interface{}{"port": 2003}},
	}, logger2)

	require.Len(t, setups, 1)
	assert.Equal(t, name, setups[0].Name)
	assert.Equal(t, CapabilityInput, setups[0].Kind)
	got, err := setups[0].Callable(setups[0].Options)
	require.NoError(t, err)
	assert.Equal(t, "bound", got)
	assert.Len(t, logger2.Entries(), 2, "the two invalid entries should each log once")
}
