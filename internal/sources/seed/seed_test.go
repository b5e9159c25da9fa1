package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

func TestLoadDefault(t *testing.T) {
	f, err := NewLoader("").Load()
	require.NoError(t, err)

	services, err := MapServices(f.Services)
	require.NoError(t, err)
	require.NotEmpty(t, services)
	assert.Equal(t, "GoDaddy", services[0].Name)

	var google bool
	for _, s := range services {
		if s.Name == "Google Cloud" {
			google = true
		}
	}
	assert.True(t, google, "built-in seed carries a probed service")
}

func TestLoadFileWithTemplateVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
services:
  - name: Internal CRM
    type: internal
    status: Planned Maintenance
    maintenanceEnd: "2020-01-01T00:00"
users:
  - username: root
    password: "{{ USSM_VAR_ROOT_PASSWORD }}"
    role: admin
  - username: ghost
    password: "{{USSM_VAR_UNSET}}"
    role: admin
  - username: intern
    password: pw
    role: superuser
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	l := NewLoader(path)
	l.lookup = func(name string) (string, bool) {
		if name == "USSM_VAR_ROOT_PASSWORD" {
			return "s3cret", true
		}
		return "", false
	}

	f, err := l.Load()
	require.NoError(t, err)

	services, err := MapServices(f.Services)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, domain.TypeInternal, services[0].Type)
	assert.Equal(t, domain.StatusPlannedMaintenance, services[0].Status)
	assert.Equal(t, "2020-01-01T00:00", services[0].MaintenanceEnd)

	users, skipped := ValidUsers(f.Users)
	require.Len(t, users, 1)
	assert.Equal(t, "s3cret", users[0].Password)
	assert.Equal(t, []string{"ghost", "intern"}, skipped)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	assert.Error(t, err)
}

func TestMapServicesRejectsUnknownStatus(t *testing.T) {
	_, err := MapServices([]ServiceProps{{Name: "X", Type: "Internal", Status: "Melting"}})
	assert.Error(t, err)
}

func TestMapServicesClearsMaintenanceWhenNotPlanned(t *testing.T) {
	services, err := MapServices([]ServiceProps{{
		Name: "X", Type: "Internal", Status: "Down", MaintenanceEnd: "2020-01-01T00:00",
	}})
	require.NoError(t, err)
	assert.Empty(t, services[0].MaintenanceEnd)
}
