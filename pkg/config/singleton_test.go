package config

import (
	"sync"
	"testing"
)

func TestGetConfig_DefaultsWhenUnset(t *testing.T) {
	SetConfig(nil)

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected default config")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestSetConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	path := writeConfig(t, "rules:\n  path: ./rules\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	SetConfig(cfg)

	if got := GetConfig(); got != cfg {
		t.Fatal("GetConfig() did not return the stored config")
	}
	if got := GetConfig().Rules.Path; got != "./rules" {
		t.Errorf("expected rules path %q, got %q", "./rules", got)
	}
}

func TestSetConfig_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetConfig(DefaultConfig())
		}()
		go func() {
			defer wg.Done()
			if GetConfig() == nil {
				t.Error("GetConfig() returned nil")
			}
		}()
	}
	wg.Wait()
}
