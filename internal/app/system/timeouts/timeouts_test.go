package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: time.Second})
	got := Current()
	if got.Short != time.Second {
		t.Errorf("Short = %v, want 1s", got.Short)
	}
	if got.Long != DefaultLong || got.Ping != DefaultPing {
		t.Errorf("zero fields changed: %+v", got)
	}

	Reset()
	if Short() != DefaultShort {
		t.Errorf("Reset left Short = %v", Short())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "slow op")
	<-ctx.Done()
	cancel()
	if logs.Len() != 1 {
		t.Fatalf("got %d warnings, want 1", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow op" {
		t.Errorf("operation = %v", op)
	}

	_, cancel = WithTimeout(context.Background(), time.Minute, log, "fast op")
	cancel()
	if logs.Len() != 1 {
		t.Error("early cancel must not log")
	}
}
