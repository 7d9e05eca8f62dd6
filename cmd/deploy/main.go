// deploy はストックエージェントのコンテナイメージをビルドし、
// Kubernetesクラスタへ Deployment / Service として適用するCLIです。
package main

import (
	"context"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"

	"stock_agent/internal/platform/k8s"
)

const deployTimeout = 15 * time.Minute

func main() {
	namespace := getEnv("DEPLOY_NAMESPACE", "stock-agent")

	// deploy teardown: デプロイ済みのリソースをネームスペースごと削除します。
	if len(os.Args) > 1 && os.Args[1] == "teardown" {
		teardown(namespace)
		return
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("[WARN] GEMINI_API_KEY is not set. The deployed agent will answer fixed symbols only.")
	}

	registryURL := os.Getenv("REGISTRY_URL")

	cfg := k8s.Config{
		ImageName:         "stock-agent",
		ImageTag:          imageTag(),
		RegistryURL:       registryURL,
		RegistryNamespace: os.Getenv("REGISTRY_NAMESPACE"),
		Platform:          "linux/amd64",
		Port:              8080,
		Replicas:          2,
		Resources: k8s.Resources{
			CPURequest:    resource.MustParse("500m"),
			MemoryRequest: resource.MustParse("1Gi"),
			CPULimit:      resource.MustParse("2000m"),
			MemoryLimit:   resource.MustParse("4Gi"),
		},
		ReadinessProbe: k8s.Probe{Path: "/health", InitialDelaySeconds: 10, PeriodSeconds: 5},
		LivenessProbe:  k8s.Probe{Path: "/health", InitialDelaySeconds: 30, PeriodSeconds: 10},
		Env: map[string]string{
			"GEMINI_API_KEY": geminiKey,
			"LOG_LEVEL":      getEnv("LOG_LEVEL", "INFO"),
		},
		Namespace:        namespace,
		ImagePullSecrets: []string{"regcred"},
		PushToRegistry:   registryURL != "",
	}

	deployer, err := k8s.NewDeployer(os.Getenv("KUBECONFIG"))
	if err != nil {
		log.Fatal("[ERROR] Failed to connect to the cluster: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), deployTimeout)
	defer cancel()

	result, err := deployer.Deploy(ctx, cfg)
	if err != nil {
		log.Println("[ERROR] Deploy failed:", err)
		log.Println("troubleshooting:")
		log.Println("  - docker --version        (is the docker CLI available?)")
		log.Println("  - kubectl cluster-info    (is the cluster reachable?)")
		log.Println("  - docker login", cfg.RegistryURL, " (are the registry credentials valid?)")
		log.Println("  - echo $GEMINI_API_KEY    (is the agent API key exported?)")
		os.Exit(1)
	}

	log.Println("deployment:", result.DeploymentName)
	log.Println("service URL:", result.URL)
	log.Println("try it:")
	log.Printf("  kubectl -n %s get pods", cfg.Namespace)
	log.Printf(`  curl -X POST %s/chat -H 'Content-Type: application/json' -d '{"input":[{"role":"user","content":[{"type":"text","text":"NVDA"}]}]}'`, result.URL)
}

// teardown はデプロイ先のネームスペースを削除し、Deployment/Serviceも併せて破棄します。
func teardown(namespace string) {
	deployer, err := k8s.NewDeployer(os.Getenv("KUBECONFIG"))
	if err != nil {
		log.Fatal("[ERROR] Failed to connect to the cluster: ", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := deployer.Teardown(ctx, namespace); err != nil {
		log.Fatal("[ERROR] Teardown failed: ", err)
	}
	log.Println("namespace removed:", namespace)
}

// imageTag はgitの短縮ハッシュをタグとして使い、取得できない場合はdevに落とします。
func imageTag() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "dev"
	}
	tag := strings.TrimSpace(string(out))
	if tag == "" {
		return "dev"
	}
	return tag
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
