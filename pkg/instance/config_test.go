package instance

import (
	"encoding/json"
	"testing"
)

func TestModTypeJSONRoundTrip(t *testing.T) {
	for _, m := range []ModType{ModVanilla, ModFabric, ModForge, ModQuilt, ModNeoForge, ModOptiFine} {
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", m, err)
		}
		var got ModType
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if got != m {
			t.Fatalf("round-trip %v: got %v", m, got)
		}
	}
}

func TestJavaArgsModeZeroValueIsCombine(t *testing.T) {
	var m JavaArgsMode
	if m != JavaArgsCombine {
		t.Fatalf("zero value = %v, want JavaArgsCombine", m)
	}
}

func TestJavaArgsModeOmittedFieldDefaultsToCombine(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal([]byte(`{"mod_type":"vanilla","ram_mib":2048,"is_server":false}`), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.JavaArgsMode != JavaArgsCombine {
		t.Fatalf("JavaArgsMode = %v, want Combine when omitted", cfg.JavaArgsMode)
	}
}

func TestSSLTrustStoreTypeUnmarshalUnknown(t *testing.T) {
	var s SSLTrustStoreType
	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Fatal("expected error for unknown ssl_trust_store value")
	}
}

func TestConfigUnknownFieldsRoundTrip(t *testing.T) {
	input := []byte(`{"mod_type":"forge","ram_mib":4096,"is_server":false,"a_future_field":{"x":1},"another":"str"}`)

	var cfg Config
	if err := json.Unmarshal(input, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(cfg.Extra) != 2 {
		t.Fatalf("Extra = %+v, want 2 entries", cfg.Extra)
	}

	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var roundTripped map[string]json.RawMessage
	if err := json.Unmarshal(out, &roundTripped); err != nil {
		t.Fatalf("Unmarshal roundTripped: %v", err)
	}
	if _, ok := roundTripped["a_future_field"]; !ok {
		t.Fatal("a_future_field was dropped on re-marshal")
	}
	if _, ok := roundTripped["another"]; !ok {
		t.Fatal("another was dropped on re-marshal")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default(ModFabric, false)
	if cfg.RAMMiB != 2048 || !cfg.EnableLogger || cfg.IsServer {
		t.Fatalf("Default() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(): %v", err)
	}
}

func TestValidateRAMFloor(t *testing.T) {
	cfg := Default(ModVanilla, false)
	cfg.RAMMiB = 128
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ram_mib below 256")
	}
}

func TestValidateCustomSSLRequiresPath(t *testing.T) {
	cfg := Default(ModVanilla, false)
	cfg.SSLTrustStoreType = SSLTrustStoreCustom
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for custom ssl trust store with no path")
	}
	cfg.SSLTrustStorePath = "/etc/certs/store.p12"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(): %v", err)
	}
}
