package main

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/g6audio/g6ctl/internal/logging"
)

func TestRootCommandInitializesLoggingFromEnv(t *testing.T) {
	if rootCmd.PersistentPreRunE == nil {
		t.Fatal("root command does not initialize logging")
	}

	t.Setenv(logging.LogLevelEnvVar, "debug")
	if err := rootCmd.PersistentPreRunE(rootCmd, nil); err != nil {
		t.Fatalf("PersistentPreRunE() failed: %v", err)
	}
	if !logging.GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("debug level not active with %s=debug", logging.LogLevelEnvVar)
	}

	t.Setenv(logging.LogLevelEnvVar, "")
	if err := rootCmd.PersistentPreRunE(rootCmd, nil); err != nil {
		t.Fatalf("PersistentPreRunE() failed: %v", err)
	}
	if logging.GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Errorf("logger not silent with %s unset", logging.LogLevelEnvVar)
	}
}
