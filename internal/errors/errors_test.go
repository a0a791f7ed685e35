package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndAsRoundTrip(t *testing.T) {
	rep := newReport("TYP001", "typecheck", "error", "mismatched types: %s vs %s", "i32", "f32")
	err := Wrap(rep)
	require.Error(t, err)

	got, ok := As(err)
	require.True(t, ok)
	require.Equal(t, rep, got)
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil))
}

func TestTypingReportsNodeKind(t *testing.T) {
	err := Typing("add", "operand types are not subtypes of one another")
	rep, ok := As(err)
	require.True(t, ok)
	require.Equal(t, "add", rep.Data["node_kind"])
	require.Equal(t, "error", rep.Severity)
}

func TestWarningIsNotAnError(t *testing.T) {
	w := Warning("emit_spirv", "address space %s mapped to Generic", "unknown")
	require.Equal(t, "warning", w.Severity)
	require.Equal(t, "WRN001", w.Code)
}

func TestToJSONIsDeterministic(t *testing.T) {
	rep := newReport("CFG001", "lower", "error", "dynamic scheduling disabled")
	a, err := rep.ToJSON(false)
	require.NoError(t, err)
	b, err := rep.ToJSON(false)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
