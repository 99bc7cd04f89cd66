package platform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

func TestRegistry_List(t *testing.T) {
	want := []string{"gitee", "github", "gitlab"}
	if diff := cmp.Diff(want, DefaultRegistry.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_New(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		settings Settings
		wantName string
		wantErr  bool
	}{
		{"github", "github", Settings{Token: "t"}, "github", false},
		{"github enterprise", "github", Settings{Token: "t", APIURL: "https://ghe.example.com/api/v3"}, "github", false},
		{"gitlab", "gitlab", Settings{Token: "t"}, "gitlab", false},
		{"gitee", "gitee", Settings{Token: "t"}, "gitee", false},
		{"bad gitlab url", "gitlab", Settings{Token: "t", APIURL: "::"}, "", true},
		{"missing token", "github", Settings{}, "", true},
		{"unknown platform", "bitbucket", Settings{Token: "t"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.platform, tt.settings)
			if tt.wantErr {
				if !errors.IsType(err, errors.ErrConfig) {
					t.Errorf("New() error = %v, want config error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	mem := NewMemory()
	r.Register("memory", func(Settings) (Provider, error) { return mem, nil })

	p, err := r.New("memory", Settings{Token: "x"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p != Provider(mem) {
		t.Error("New() did not return the registered provider")
	}
}

func TestAPIURLFor(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{"github", "https://github.com", ""},
		{"github", "https://ghe.example.com/", "https://ghe.example.com/api/v3"},
		{"gitlab", "https://gitlab.com", ""},
		{"gitlab", "https://gitlab.example.com", "https://gitlab.example.com/api/v4"},
		{"gitee", "https://gitee.example.com", "https://gitee.example.com/api/v5"},
		{"gitee", "", ""},
		{"jenkins", "https://ci.example.com", ""},
	}
	for _, tt := range tests {
		if got := APIURLFor(tt.name, tt.server); got != tt.want {
			t.Errorf("APIURLFor(%s, %s) = %q, want %q", tt.name, tt.server, got, tt.want)
		}
	}
}
