package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func TestDeployment(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Env = map[string]string{
		"LOG_LEVEL":      "INFO",
		"GEMINI_API_KEY": "secret",
	}
	cfg.ImagePullSecrets = []string{"regcred"}

	dep := Deployment(cfg)

	assert.Equal(t, "stock-agent", dep.Name)
	assert.Equal(t, "stock-agent", dep.Namespace)
	require.NotNil(t, dep.Spec.Replicas)
	assert.Equal(t, int32(2), *dep.Spec.Replicas)
	assert.Equal(t, appLabels("stock-agent"), dep.Spec.Selector.MatchLabels)
	assert.Equal(t, appLabels("stock-agent"), dep.Spec.Template.Labels)

	require.Len(t, dep.Spec.Template.Spec.Containers, 1)
	container := dep.Spec.Template.Spec.Containers[0]

	assert.Equal(t, "agent", container.Name)
	assert.Equal(t, "registry.example.com/demo/stock-agent:abc1234", container.Image)
	assert.Equal(t, corev1.PullIfNotPresent, container.ImagePullPolicy)
	require.Len(t, container.Ports, 1)
	assert.Equal(t, int32(8080), container.Ports[0].ContainerPort)

	// Env vars are emitted in sorted key order so repeated renders are identical.
	require.Len(t, container.Env, 2)
	assert.Equal(t, "GEMINI_API_KEY", container.Env[0].Name)
	assert.Equal(t, "LOG_LEVEL", container.Env[1].Name)

	assert.Equal(t, "500m", container.Resources.Requests.Cpu().String())
	assert.Equal(t, "1Gi", container.Resources.Requests.Memory().String())
	assert.Equal(t, "2", container.Resources.Limits.Cpu().String())
	assert.Equal(t, "4Gi", container.Resources.Limits.Memory().String())

	require.NotNil(t, container.ReadinessProbe)
	assert.Equal(t, "/health", container.ReadinessProbe.HTTPGet.Path)
	assert.Equal(t, int32(10), container.ReadinessProbe.InitialDelaySeconds)
	assert.Equal(t, int32(5), container.ReadinessProbe.PeriodSeconds)

	require.NotNil(t, container.LivenessProbe)
	assert.Equal(t, "/health", container.LivenessProbe.HTTPGet.Path)
	assert.Equal(t, int32(30), container.LivenessProbe.InitialDelaySeconds)
	assert.Equal(t, int32(10), container.LivenessProbe.PeriodSeconds)

	require.Len(t, dep.Spec.Template.Spec.ImagePullSecrets, 1)
	assert.Equal(t, "regcred", dep.Spec.Template.Spec.ImagePullSecrets[0].Name)
}

func TestService(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	svc := Service(cfg)

	assert.Equal(t, "stock-agent", svc.Name)
	assert.Equal(t, "stock-agent", svc.Namespace)
	assert.Equal(t, corev1.ServiceTypeClusterIP, svc.Spec.Type)
	assert.Equal(t, appLabels("stock-agent"), svc.Spec.Selector)

	require.Len(t, svc.Spec.Ports, 1)
	assert.Equal(t, int32(8080), svc.Spec.Ports[0].Port)
	assert.Equal(t, int32(8080), svc.Spec.Ports[0].TargetPort.IntVal)
}

func TestServiceURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	assert.Equal(t, "http://stock-agent.stock-agent.svc.cluster.local:8080", ServiceURL(cfg))
}

func TestAppLabels(t *testing.T) {
	t.Parallel()

	labels := appLabels("stock-agent")

	assert.Equal(t, "stock-agent", labels["app"])
	assert.Equal(t, "stock-agent", labels["app.kubernetes.io/name"])
	assert.Equal(t, "stock-agent-deployer", labels["app.kubernetes.io/managed-by"])
}
