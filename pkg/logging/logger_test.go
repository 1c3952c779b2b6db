package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetLogger(t *testing.T) {
	t.Helper()
	require.NoError(t, Close())
	t.Cleanup(func() { require.NoError(t, Close()) })
}

func TestGetLoggerLazilyInitializes(t *testing.T) {
	resetLogger(t)
	log := GetLogger()
	require.NotNil(t, log)
}

func TestInitRejectsDoubleInitialization(t *testing.T) {
	resetLogger(t)
	require.NoError(t, Init(Config{Level: LevelInfo}))
	require.Error(t, Init(Config{Level: LevelInfo}))
}

func TestInitWritesJSONToFile(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "nested", "engine.log")

	require.NoError(t, Init(Config{Level: LevelDebug, OutputPath: path, Format: "json"}))
	GetLogger().Info("hello", "n", 1)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &decoded))
	require.Equal(t, "hello", decoded["msg"])
}

func TestInitDefaultIsIdempotent(t *testing.T) {
	resetLogger(t)
	InitDefault()
	first := Logger
	InitDefault()
	require.Same(t, first, Logger)
}

func TestContextHelpersDoNotPanic(t *testing.T) {
	resetLogger(t)
	require.NoError(t, Init(Config{Level: LevelDebug}))

	require.NotPanics(t, func() {
		WithWorker(3).Info("worker context")
		WithEpoch(7).Info("epoch context")
		WithComponent("occ").Info("component context")
		WithRecord(1, 2).Info("record context")
		WithError(errTest{}).Info("error context")
		WithTxn(stringerTID("tid")).Info("txn context")
	})
}

type errTest struct{}

func (errTest) Error() string { return "boom" }

type stringerTID string

func (s stringerTID) String() string { return string(s) }

func TestLevelHelpersDoNotPanic(t *testing.T) {
	resetLogger(t)
	require.NotPanics(t, func() {
		Debug("d")
		Info("i")
		Warn("w")
		Error("e")
	})
}

