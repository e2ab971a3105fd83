package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	defer Reset()

	Configure(Config{Short: 7 * time.Second})
	got := Current()
	if got.Short != 7*time.Second {
		t.Errorf("Short = %v, want 7s", got.Short)
	}
	if got.Medium != DefaultMedium {
		t.Errorf("Medium = %v, want default %v", got.Medium, DefaultMedium)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	defer Reset()

	t.Setenv("THREADHUB_TIMEOUT_PING", "750ms")
	t.Setenv("THREADHUB_TIMEOUT_LONG", "bogus")
	t.Setenv("THREADHUB_TIMEOUT_MEDIUM", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Errorf("ConfigureFromEnv() = %d, want 1", n)
	}
	if Ping() != 750*time.Millisecond {
		t.Errorf("Ping = %v, want 750ms", Ping())
	}
	if Long() != DefaultLong {
		t.Errorf("Long = %v, want default", Long())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
