package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/api/resource"
)

// validConfig returns a payload that passes validation; tests mutate it.
func validConfig() Config {
	return Config{
		ImageName:         "stock-agent",
		ImageTag:          "abc1234",
		RegistryURL:       "registry.example.com",
		RegistryNamespace: "demo",
		Platform:          "linux/amd64",
		Port:              8080,
		Replicas:          2,
		Resources: Resources{
			CPURequest:    resource.MustParse("500m"),
			MemoryRequest: resource.MustParse("1Gi"),
			CPULimit:      resource.MustParse("2000m"),
			MemoryLimit:   resource.MustParse("4Gi"),
		},
		ReadinessProbe: Probe{Path: "/health", InitialDelaySeconds: 10, PeriodSeconds: 5},
		LivenessProbe:  Probe{Path: "/health", InitialDelaySeconds: 30, PeriodSeconds: 10},
		Env:            map[string]string{"LOG_LEVEL": "INFO"},
		Namespace:      "stock-agent",
		PushToRegistry: true,
	}
}

func TestConfig_ImageRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(c *Config)
		expected string
	}{
		{
			name:     "registry with namespace",
			mutate:   func(c *Config) {},
			expected: "registry.example.com/demo/stock-agent:abc1234",
		},
		{
			name:     "registry without namespace",
			mutate:   func(c *Config) { c.RegistryNamespace = "" },
			expected: "registry.example.com/stock-agent:abc1234",
		},
		{
			name: "local image without registry",
			mutate: func(c *Config) {
				c.RegistryURL = ""
				c.RegistryNamespace = ""
			},
			expected: "stock-agent:abc1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			assert.Equal(t, tt.expected, cfg.ImageRef())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "success: complete payload",
			mutate: func(c *Config) {},
		},
		{
			name: "success: local-only image needs no registry",
			mutate: func(c *Config) {
				c.RegistryURL = ""
				c.RegistryNamespace = ""
				c.PushToRegistry = false
			},
		},
		{
			name:    "failure: missing image name",
			mutate:  func(c *Config) { c.ImageName = "" },
			wantErr: "image name is required",
		},
		{
			name:    "failure: missing image tag",
			mutate:  func(c *Config) { c.ImageTag = "" },
			wantErr: "image tag is required",
		},
		{
			name:    "failure: missing namespace",
			mutate:  func(c *Config) { c.Namespace = "" },
			wantErr: "namespace is required",
		},
		{
			name:    "failure: zero port",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "port must be positive",
		},
		{
			name:    "failure: negative replicas",
			mutate:  func(c *Config) { c.Replicas = -1 },
			wantErr: "replicas must be positive",
		},
		{
			name: "failure: push without registry",
			mutate: func(c *Config) {
				c.RegistryURL = ""
			},
			wantErr: "registry URL is required when pushing to a registry",
		},
		{
			name:    "failure: missing probe path",
			mutate:  func(c *Config) { c.LivenessProbe.Path = "" },
			wantErr: "readiness and liveness probe paths are required",
		},
		{
			name:    "failure: missing cpu request",
			mutate:  func(c *Config) { c.Resources.CPURequest = resource.Quantity{} },
			wantErr: "cpu and memory requests are required",
		},
		{
			name:    "failure: missing memory limit",
			mutate:  func(c *Config) { c.Resources.MemoryLimit = resource.Quantity{} },
			wantErr: "cpu and memory limits are required",
		},
		{
			name:    "failure: cpu limit below request",
			mutate:  func(c *Config) { c.Resources.CPULimit = resource.MustParse("100m") },
			wantErr: "cpu limit is below cpu request",
		},
		{
			name:    "failure: memory limit below request",
			mutate:  func(c *Config) { c.Resources.MemoryLimit = resource.MustParse("512Mi") },
			wantErr: "memory limit is below memory request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
