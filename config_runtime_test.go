package authcore

import (
	"context"
	"testing"

	"github.com/formlane/authcore/pkg/registry/memory"
)

func TestInitializeHonorsSuppliedRegistry(t *testing.T) {
	supplied := memory.NewAdapter()

	config := Config{
		Registry: supplied,
		Runtime: RuntimeConfig{
			Registry: RegistryConfig{
				Backend: RegistryBackendRedis,
				// No address: nothing should be dialed when the registry is
				// already supplied.
			},
		},
	}

	closeResource, resolved, err := config.initialize(context.Background())
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer func() {
		if err := closeResource(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	}()

	if resolved.Registry != supplied {
		t.Fatal("expected the supplied registry to be kept")
	}
}

func TestInitializeHonorsSuppliedPrincipalStore(t *testing.T) {
	supplied := &fakePrincipalStore{}

	config := Config{
		Principals: supplied,
		Runtime: RuntimeConfig{
			Storage: StorageConfig{
				Backend: StorageBackendPostgres,
				// No DSN: nothing should be dialed when the store is already
				// supplied.
			},
		},
	}

	closeResource, resolved, err := config.initialize(context.Background())
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer func() {
		if err := closeResource(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	}()

	if resolved.Principals != supplied {
		t.Fatal("expected the supplied principal store to be kept")
	}
}

func TestInitializeRejectsUnknownBackends(t *testing.T) {
	config := Config{
		Runtime: RuntimeConfig{
			Storage: StorageConfig{Backend: StorageBackend("mysql")},
		},
	}
	if _, _, err := config.initialize(context.Background()); err == nil {
		t.Fatal("expected unknown storage backend to fail")
	}

	config = Config{
		Runtime: RuntimeConfig{
			Registry: RegistryConfig{Backend: RegistryBackend("memcached")},
		},
	}
	if _, _, err := config.initialize(context.Background()); err == nil {
		t.Fatal("expected unknown registry backend to fail")
	}
}
