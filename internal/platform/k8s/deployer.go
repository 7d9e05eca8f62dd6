package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ImageBuilder builds and (optionally) pushes the container image for a
// deployment payload. Implemented by the docker CLI wrapper; replaced by a
// stub in tests.
type ImageBuilder interface {
	BuildAndPush(ctx context.Context, cfg Config) error
}

// DockerBuilder shells out to the docker CLI to build and push images.
// The build context is the current working directory.
type DockerBuilder struct{}

var _ ImageBuilder = DockerBuilder{}

// BuildAndPush builds the image and pushes it when the payload asks for it.
func (DockerBuilder) BuildAndPush(ctx context.Context, cfg Config) error {
	ref := cfg.ImageRef()

	args := []string{"build", "-t", ref}
	if cfg.Platform != "" {
		args = append(args, "--platform", cfg.Platform)
	}
	args = append(args, ".")

	if err := runDocker(ctx, args...); err != nil {
		return fmt.Errorf("docker build failed for %s: %w", ref, err)
	}
	if !cfg.PushToRegistry {
		return nil
	}
	if err := runDocker(ctx, "push", ref); err != nil {
		return fmt.Errorf("docker push failed for %s: %w", ref, err)
	}
	return nil
}

// runDocker executes one docker CLI invocation, streaming its output.
func runDocker(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Result reports where the deployed service is reachable.
type Result struct {
	URL            string
	DeploymentName string
}

// Deployer applies a deployment payload to a Kubernetes cluster.
// A deploy either completes fully or fails; nothing is retried or rolled
// back here.
type Deployer struct {
	clientset kubernetes.Interface
	builder   ImageBuilder
}

// NewDeployer builds a Deployer from the in-cluster config when running
// inside a pod, otherwise from the local kubeconfig. kubeconfigPath may be
// empty to use the default loading rules (~/.kube/config).
func NewDeployer(kubeconfigPath string) (*Deployer, error) {
	restCfg, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		if kubeconfigPath != "" {
			loadingRules.ExplicitPath = kubeconfigPath
		}
		restCfg, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			loadingRules, &clientcmd.ConfigOverrides{},
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return &Deployer{clientset: clientset, builder: DockerBuilder{}}, nil
}

// NewDeployerWith creates a Deployer with explicit collaborators.
func NewDeployerWith(clientset kubernetes.Interface, builder ImageBuilder) *Deployer {
	return &Deployer{clientset: clientset, builder: builder}
}

// Deploy validates the payload, builds and pushes the image, and applies
// the namespace, Deployment and Service. The first failing step aborts the
// whole operation.
func (d *Deployer) Deploy(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deployment config: %w", err)
	}

	if err := d.builder.BuildAndPush(ctx, cfg); err != nil {
		return nil, err
	}

	if err := d.ensureNamespace(ctx, cfg.Namespace); err != nil {
		return nil, err
	}
	if err := d.applyDeployment(ctx, Deployment(cfg)); err != nil {
		return nil, err
	}
	if err := d.applyService(ctx, Service(cfg)); err != nil {
		return nil, err
	}

	slog.Info("deployment applied", "deployment", cfg.ImageName, "namespace", cfg.Namespace, "replicas", cfg.Replicas)
	return &Result{URL: ServiceURL(cfg), DeploymentName: cfg.ImageName}, nil
}

// Teardown removes everything a deploy created by deleting the target
// namespace; Kubernetes garbage-collects the Deployment and Service with it.
// A namespace that is already gone is not an error.
func (d *Deployer) Teardown(ctx context.Context, namespace string) error {
	err := d.clientset.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}
	slog.Info("namespace deleted", "namespace", namespace)
	return nil
}

// ensureNamespace creates the target namespace if it does not exist yet.
func (d *Deployer) ensureNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := d.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to ensure namespace %s: %w", name, err)
	}
	return nil
}

// applyDeployment creates the Deployment, updating it when it already exists.
func (d *Deployer) applyDeployment(ctx context.Context, dep *appsv1.Deployment) error {
	client := d.clientset.AppsV1().Deployments(dep.Namespace)
	_, err := client.Create(ctx, dep, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		existing, getErr := client.Get(ctx, dep.Name, metav1.GetOptions{})
		if getErr != nil {
			return fmt.Errorf("failed to read existing deployment %s: %w", dep.Name, getErr)
		}
		dep.ResourceVersion = existing.ResourceVersion
		_, err = client.Update(ctx, dep, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to apply deployment %s: %w", dep.Name, err)
	}
	return nil
}

// applyService creates the Service, updating it when it already exists.
// The allocated ClusterIP must be preserved across updates.
func (d *Deployer) applyService(ctx context.Context, svc *corev1.Service) error {
	client := d.clientset.CoreV1().Services(svc.Namespace)
	_, err := client.Create(ctx, svc, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		existing, getErr := client.Get(ctx, svc.Name, metav1.GetOptions{})
		if getErr != nil {
			return fmt.Errorf("failed to read existing service %s: %w", svc.Name, getErr)
		}
		svc.ResourceVersion = existing.ResourceVersion
		svc.Spec.ClusterIP = existing.Spec.ClusterIP
		_, err = client.Update(ctx, svc, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("failed to apply service %s: %w", svc.Name, err)
	}
	return nil
}
