package k8s

import (
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

// appLabels returns the selector labels for the agent workload.
func appLabels(name string) map[string]string {
	return map[string]string{
		"app":                          name,
		"app.kubernetes.io/name":       name,
		"app.kubernetes.io/managed-by": "stock-agent-deployer",
	}
}

// Deployment renders the agent Deployment from the payload.
func Deployment(cfg Config) *appsv1.Deployment {
	labels := appLabels(cfg.ImageName)

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]corev1.EnvVar, 0, len(keys))
	for _, k := range keys {
		env = append(env, corev1.EnvVar{Name: k, Value: cfg.Env[k]})
	}

	pullSecrets := make([]corev1.LocalObjectReference, 0, len(cfg.ImagePullSecrets))
	for _, name := range cfg.ImagePullSecrets {
		pullSecrets = append(pullSecrets, corev1.LocalObjectReference{Name: name})
	}

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.ImageName,
			Namespace: cfg.Namespace,
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(cfg.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					ImagePullSecrets: pullSecrets,
					Containers: []corev1.Container{
						{
							Name:            "agent",
							Image:           cfg.ImageRef(),
							ImagePullPolicy: corev1.PullIfNotPresent,
							Ports: []corev1.ContainerPort{
								{
									Name:          "http",
									ContainerPort: cfg.Port,
									Protocol:      corev1.ProtocolTCP,
								},
							},
							Env: env,
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    cfg.Resources.CPURequest,
									corev1.ResourceMemory: cfg.Resources.MemoryRequest,
								},
								Limits: corev1.ResourceList{
									corev1.ResourceCPU:    cfg.Resources.CPULimit,
									corev1.ResourceMemory: cfg.Resources.MemoryLimit,
								},
							},
							ReadinessProbe: httpProbe(cfg.ReadinessProbe, cfg.Port),
							LivenessProbe:  httpProbe(cfg.LivenessProbe, cfg.Port),
						},
					},
				},
			},
		},
	}
}

// Service renders a ClusterIP Service in front of the agent pods.
func Service(cfg Config) *corev1.Service {
	labels := appLabels(cfg.ImageName)

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cfg.ImageName,
			Namespace: cfg.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: labels,
			Ports: []corev1.ServicePort{
				{
					Name:       "http",
					Port:       cfg.Port,
					TargetPort: intstr.FromInt32(cfg.Port),
					Protocol:   corev1.ProtocolTCP,
				},
			},
		},
	}
}

// ServiceURL returns the in-cluster endpoint of the deployed service.
func ServiceURL(cfg Config) string {
	return fmt.Sprintf("http://%s.%s.svc.cluster.local:%d", cfg.ImageName, cfg.Namespace, cfg.Port)
}

// httpProbe converts a probe definition to the Kubernetes probe type.
func httpProbe(p Probe, port int32) *corev1.Probe {
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			HTTPGet: &corev1.HTTPGetAction{
				Path: p.Path,
				Port: intstr.FromInt32(port),
			},
		},
		InitialDelaySeconds: p.InitialDelaySeconds,
		PeriodSeconds:       p.PeriodSeconds,
	}
}
