// Package k8s packages the stock agent for Kubernetes. It assembles the
// deployment payload, renders the workload objects, and hands them to the
// image and cluster collaborators (the docker CLI and the Kubernetes API).
package k8s

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Probe defines an HTTP health probe against the service port.
type Probe struct {
	Path                string
	InitialDelaySeconds int32
	PeriodSeconds       int32
}

// Resources holds CPU/memory requests and limits for the agent container.
type Resources struct {
	CPURequest    resource.Quantity
	MemoryRequest resource.Quantity
	CPULimit      resource.Quantity
	MemoryLimit   resource.Quantity
}

// Config is the complete deployment payload handed to the Deployer.
// It must be internally consistent before any build or cluster call happens;
// Validate enforces that.
type Config struct {
	ImageName         string            // Base image name, also used as workload name
	ImageTag          string            // Image tag (typically the git short hash)
	RegistryURL       string            // Registry host; empty for local-only images
	RegistryNamespace string            // Registry namespace/project
	Platform          string            // Build platform (e.g., "linux/amd64")
	Port              int32             // Container and service port
	Replicas          int32             // Desired replica count
	Resources         Resources         // Requests and limits
	ReadinessProbe    Probe             // Readiness probe definition
	LivenessProbe     Probe             // Liveness probe definition
	Env               map[string]string // Container environment variables
	Namespace         string            // Target cluster namespace
	ImagePullSecrets  []string          // Secrets for pulling from a private registry
	PushToRegistry    bool              // Push the built image before applying
}

// ImageRef returns the fully qualified image reference for the payload.
func (c Config) ImageRef() string {
	switch {
	case c.RegistryURL == "":
		return fmt.Sprintf("%s:%s", c.ImageName, c.ImageTag)
	case c.RegistryNamespace == "":
		return fmt.Sprintf("%s/%s:%s", c.RegistryURL, c.ImageName, c.ImageTag)
	default:
		return fmt.Sprintf("%s/%s/%s:%s", c.RegistryURL, c.RegistryNamespace, c.ImageName, c.ImageTag)
	}
}

// Validate reports the first inconsistency found in the payload.
func (c Config) Validate() error {
	if c.ImageName == "" {
		return errors.New("image name is required")
	}
	if c.ImageTag == "" {
		return errors.New("image tag is required")
	}
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive, got %d", c.Port)
	}
	if c.Replicas <= 0 {
		return fmt.Errorf("replicas must be positive, got %d", c.Replicas)
	}
	if c.PushToRegistry && c.RegistryURL == "" {
		return errors.New("registry URL is required when pushing to a registry")
	}
	if c.ReadinessProbe.Path == "" || c.LivenessProbe.Path == "" {
		return errors.New("readiness and liveness probe paths are required")
	}
	if c.Resources.CPURequest.IsZero() || c.Resources.MemoryRequest.IsZero() {
		return errors.New("cpu and memory requests are required")
	}
	if c.Resources.CPULimit.IsZero() || c.Resources.MemoryLimit.IsZero() {
		return errors.New("cpu and memory limits are required")
	}
	if c.Resources.CPULimit.Cmp(c.Resources.CPURequest) < 0 {
		return errors.New("cpu limit is below cpu request")
	}
	if c.Resources.MemoryLimit.Cmp(c.Resources.MemoryRequest) < 0 {
		return errors.New("memory limit is below memory request")
	}
	return nil
}
