package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "ADMIN_PASSWORD", "QUEUE_BACKEND", "ARCHIVE_BACKEND", "LATE_CUTOFF", "SEED_DEMO"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.HTTPPort != "5000" {
		t.Errorf("expected port 5000, got %s", cfg.HTTPPort)
	}
	if cfg.AdminPassword != "1234" {
		t.Errorf("expected default admin password, got %q", cfg.AdminPassword)
	}
	if cfg.UsesRedis() {
		t.Error("memory backends should not need redis")
	}
	if !cfg.SeedDemo {
		t.Error("expected demo seed on by default")
	}
	if cfg.LateCutoff != "" {
		t.Errorf("expected no late cutoff by default, got %q", cfg.LateCutoff)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("ADMIN_TOKEN_TTL", "30m")
	t.Setenv("GUARD_ADMIN_ROUTES", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ARCHIVE_BACKEND", "redis")

	cfg := Load()
	if cfg.AdminPassword != "s3cret" {
		t.Errorf("expected override, got %q", cfg.AdminPassword)
	}
	if cfg.AdminTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %s", cfg.AdminTokenTTL)
	}
	if !cfg.GuardAdminRoutes {
		t.Error("expected guard on")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.RedisDB)
	}
	if !cfg.UsesRedis() {
		t.Error("redis archive should need redis")
	}
}

func TestEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_INT", "many")
	if got := durationEnv("X_DUR", time.Second); got != time.Second {
		t.Errorf("duration fallback: got %s", got)
	}
	if got := boolEnv("X_BOOL", true); !got {
		t.Error("bool fallback: got false")
	}
	if got := intEnv("X_INT", 7); got != 7 {
		t.Errorf("int fallback: got %d", got)
	}
}

func TestCutoff(t *testing.T) {
	cases := []struct {
		in      string
		h, m    int
		ok      bool
		wantErr bool
	}{
		{"", 0, 0, false, false},
		{"09:01", 9, 1, true, false},
		{"8:30", 8, 30, true, false},
		{"25:00", 0, 0, false, true},
		{"late", 0, 0, false, true},
	}
	for _, tc := range cases {
		h, m, ok, err := App{LateCutoff: tc.in}.Cutoff()
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: unexpected error state %v", tc.in, err)
			continue
		}
		if ok != tc.ok {
			t.Errorf("%q: expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if !tc.wantErr && (h != tc.h || m != tc.m) {
			t.Errorf("%q: expected %d:%d, got %d:%d", tc.in, tc.h, tc.m, h, m)
		}
	}
}

func TestLocation(t *testing.T) {
	loc, err := App{}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("expected local zone, got %v, %v", loc, err)
	}
	if _, err := (App{Timezone: "Nowhere/Atlantis"}).Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}
