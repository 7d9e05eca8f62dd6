// Package smoketest exercises a running stock agent service end to end:
// health check, single-shot chat, streaming chat, direct lookups, and
// (for remote targets) a bounded-concurrency load burst.
package smoketest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"stock_agent/internal/feature/assistant/transport/http/dto"
	"stock_agent/internal/feature/quotes/domain/entity"
	platformhttp "stock_agent/internal/platform/http"
)

const (
	healthTimeout  = 5 * time.Second
	requestTimeout = 10 * time.Second
	burstTimeout   = 5 * time.Second

	// burstWorkers bounds the load-test concurrency; burstRequests is the
	// total number of chat calls reduced to a success percentage.
	burstWorkers  = 10
	burstRequests = 20
)

// directSymbols is the fixed list exercised by the in-process lookup step.
var directSymbols = []string{"NVDA", "AAPL", "MSFT", "UNKNOWN"}

// Lookup is the quote lookup consulted directly, without the network.
type Lookup interface {
	Lookup(symbol string) entity.LookupResult
}

// Runner drives the smoke and load checks against one target service.
// Individual request failures are recorded and reported, never fatal.
type Runner struct {
	BaseURL string
	Remote  bool // remote targets additionally run the load burst
	Quotes  Lookup
	Client  *http.Client
	Out     io.Writer
}

// NewRunner creates a Runner targeting baseURL.
func NewRunner(baseURL string, remote bool, quotes Lookup) *Runner {
	return &Runner{
		BaseURL: baseURL,
		Remote:  remote,
		Quotes:  quotes,
		Client:  platformhttp.NewHTTPClient(requestTimeout),
		Out:     os.Stdout,
	}
}

// Run executes every check in order and reports whether all of them passed.
// Only an unreachable health endpoint stops the run early.
func (r *Runner) Run(ctx context.Context) bool {
	fmt.Fprintf(r.Out, "testing stock agent at %s\n", r.BaseURL)

	if !r.checkHealth(ctx) {
		return false
	}
	ok := r.checkChat(ctx)
	ok = r.checkStream(ctx) && ok
	ok = r.checkLookups() && ok
	if r.Remote {
		ok = r.runBurst(ctx) && ok
	}

	fmt.Fprintln(r.Out, "testing complete")
	return ok
}

// checkHealth verifies GET /health answers 200.
func (r *Runner) checkHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/health", nil)
	if err != nil {
		fmt.Fprintf(r.Out, "health check failed: %v\n", err)
		return false
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		fmt.Fprintf(r.Out, "health check failed: %v\n", err)
		return false
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(r.Out, "health check returned %d\n", resp.StatusCode)
		return false
	}
	fmt.Fprintln(r.Out, "service is healthy")
	return true
}

// checkChat issues the single-shot NVIDIA query.
func (r *Runner) checkChat(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := r.postJSON(ctx, "/chat", chatRequest("What is NVIDIA current stock price?", "test123"))
	if err != nil {
		fmt.Fprintf(r.Out, "chat query failed: %v\n", err)
		return false
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(r.Out, "chat query returned %d\n", resp.StatusCode)
		return false
	}
	var out dto.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(r.Out, "chat response decode failed: %v\n", err)
		return false
	}
	fmt.Fprintf(r.Out, "chat response [session %s]: %s\n", out.SessionID, out.Response)
	return true
}

// checkStream consumes the streaming endpoint line by line.
func (r *Runner) checkStream(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := r.postJSON(ctx, "/stream_chat", chatRequest("Tell me about NVDA stock", "test456"))
	if err != nil {
		fmt.Fprintf(r.Out, "stream query failed: %v\n", err)
		return false
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(r.Out, "stream query returned %d\n", resp.StatusCode)
		return false
	}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fmt.Fprintf(r.Out, "  stream: %s\n", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.Out, "stream read failed: %v\n", err)
		return false
	}
	return true
}

// checkLookups exercises the lookup table directly, without the network.
func (r *Runner) checkLookups() bool {
	for _, symbol := range directSymbols {
		res := r.Quotes.Lookup(symbol)
		if res.Found {
			fmt.Fprintf(r.Out, "lookup %s: $%s (%s)\n", symbol, res.Quote.Price, res.Quote.Change)
		} else {
			fmt.Fprintf(r.Out, "lookup %s: %s\n", symbol, res.Message)
		}
	}
	return true
}

// runBurst issues burstRequests chat calls through burstWorkers workers and
// reduces the outcomes to a success percentage. Each worker writes only its
// own result slots, so no extra synchronization is needed beyond the wait.
func (r *Runner) runBurst(ctx context.Context) bool {
	results := make([]bool, burstRequests)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < burstWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.burstRequest(ctx, i)
			}
		}()
	}
	for i := 0; i < burstRequests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	successes := 0
	for _, ok := range results {
		if ok {
			successes++
		}
	}
	rate := float64(successes) / float64(burstRequests) * 100
	fmt.Fprintf(r.Out, "load test: %.1f%% success (%d/%d)\n", rate, successes, burstRequests)
	return successes == burstRequests
}

// burstRequest issues one load-test chat call; any failure counts as false.
func (r *Runner) burstRequest(ctx context.Context, i int) bool {
	ctx, cancel := context.WithTimeout(ctx, burstTimeout)
	defer cancel()

	resp, err := r.postJSON(ctx, "/chat",
		chatRequest(fmt.Sprintf("NVDA stock request %d", i), fmt.Sprintf("load-test-%d", i)))
	if err != nil {
		return false
	}
	defer closeBody(resp)
	return resp.StatusCode == http.StatusOK
}

// postJSON sends one JSON POST to the target service.
func (r *Runner) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.Client.Do(req)
}

// chatRequest builds the single-turn request body used by every chat call.
func chatRequest(text, sessionID string) dto.AgentRequest {
	return dto.AgentRequest{
		Input: []dto.Message{
			{
				Role:    "user",
				Content: []dto.ContentPart{{Type: "text", Text: text}},
			},
		},
		SessionID: sessionID,
	}
}

// closeBody drains and closes a response body so connections get reused.
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
