package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/dcma/pkg/storage"
)

func TestConfigFinalize(t *testing.T) {
	t.Setenv("DCMA_TEST_STORAGE_PROVIDER", "azure")
	t.Setenv("DCMA_TEST_STORAGE_CONN", "UseDevelopmentStorage=true")
	t.Setenv("DCMA_TEST_STORAGE_EMPTY", "")

	tests := []struct {
		name    string
		cfg     storage.Config
		env     *storage.Env
		want    storage.Config
		wantErr string
	}{
		{
			name: "defaults",
			want: storage.Config{Provider: "local", Root: "data/archive", ContainerName: "batches"},
		},
		{
			name: "env selects azure",
			env:  &storage.Env{Provider: "DCMA_TEST_STORAGE_PROVIDER", ConnectionString: "DCMA_TEST_STORAGE_CONN"},
			want: storage.Config{Provider: "azure", Root: "data/archive", ContainerName: "batches", ConnectionString: "UseDevelopmentStorage=true"},
		},
		{
			name: "empty variable ignored",
			cfg:  storage.Config{Root: "/srv/archive"},
			env:  &storage.Env{Root: "DCMA_TEST_STORAGE_EMPTY"},
			want: storage.Config{Provider: "local", Root: "/srv/archive", ContainerName: "batches"},
		},
		{name: "azure without connection string", cfg: storage.Config{Provider: "azure"}, wantErr: "connection_string required"},
		{name: "unknown provider", cfg: storage.Config{Provider: "s3"}, wantErr: `unknown provider "s3"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cfg
			err := c.Finalize(tt.env)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c != tt.want {
				t.Errorf("got %+v, want %+v", c, tt.want)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	c := storage.Config{Provider: "local", Root: "data/archive", ContainerName: "batches"}
	c.Merge(&storage.Config{Provider: "azure", ConnectionString: "conn"})

	want := storage.Config{Provider: "azure", Root: "data/archive", ContainerName: "batches", ConnectionString: "conn"}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}
