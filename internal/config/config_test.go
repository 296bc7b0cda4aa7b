package config

import (
	"encoding/hex"
	"testing"

	"github.com/spf13/viper"
)

var rawKey = []byte{
	21, 34, 23, 141, 51, 164, 207, 128, 19, 10, 91, 22, 73, 144, 125, 16,
	216, 152, 143, 131, 121, 121, 101, 39, 98, 87, 76, 45, 42, 132, 34, 2,
}

func TestSecretFromHexKey(t *testing.T) {
	v := viper.New()
	v.Set("key", hex.EncodeToString(rawKey))
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if string(got) != string(rawKey) {
		t.Fatalf("Secret = % x, want % x", got, rawKey)
	}
}

func TestSecretFromRawASCIIKey(t *testing.T) {
	v := viper.New()
	v.Set("key", "n1dn5emfcakghfo13nbsjfdk3mbuk83h")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("Secret length = %d, want 32", len(got))
	}
}

func TestSecretFromPassphraseIsDeterministic(t *testing.T) {
	v := viper.New()
	v.Set("passphrase.passphrase", "correct horse battery staple")
	v.Set("passphrase.salt", "fixed-salt-value")
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	b, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("passphrase-derived secret is not deterministic")
	}
	if len(a) != 32 {
		t.Fatalf("derived secret length = %d, want 32", len(a))
	}
}

func TestNoSecretSource(t *testing.T) {
	v := viper.New()
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.Secret(); err != ErrNoSecretSource {
		t.Fatalf("Secret: got %v, want ErrNoSecretSource", err)
	}
}
