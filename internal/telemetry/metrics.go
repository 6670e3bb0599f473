package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var defaultRegistry = newRegistry()

type registry struct {
	mu                    sync.Mutex
	toolCalls             map[string]map[string]int64
	toolDurationBuckets   map[string][]int64
	httpRequests          map[string]map[int]int64
	githubAPIErrors       map[string]map[int]int64
	deployments           map[string]int64
	previewSessionsActive int64
}

func newRegistry() *registry {
	return &registry{
		toolCalls:           make(map[string]map[string]int64),
		toolDurationBuckets: make(map[string][]int64),
		httpRequests:        make(map[string]map[int]int64),
		githubAPIErrors:     make(map[string]map[int]int64),
		deployments:         make(map[string]int64),
	}
}

func IncToolCall(toolName, status string) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolCalls[toolName]; !ok {
		defaultRegistry.toolCalls[toolName] = make(map[string]int64)
	}
	defaultRegistry.toolCalls[toolName][status]++
}

func ObserveToolDuration(toolName string, d time.Duration) {
	buckets := []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	sec := d.Seconds()

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.toolDurationBuckets[toolName]; !ok {
		defaultRegistry.toolDurationBuckets[toolName] = make([]int64, len(buckets)+1)
	}
	idx := len(buckets)
	for i, b := range buckets {
		if sec <= b {
			idx = i
			break
		}
	}
	defaultRegistry.toolDurationBuckets[toolName][idx]++
}

func IncHTTPRequest(method string, status int) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.httpRequests[method]; !ok {
		defaultRegistry.httpRequests[method] = make(map[int]int64)
	}
	defaultRegistry.httpRequests[method][status]++
}

func IncGitHubAPIError(operation string, statusCode int) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, ok := defaultRegistry.githubAPIErrors[operation]; !ok {
		defaultRegistry.githubAPIErrors[operation] = make(map[int]int64)
	}
	defaultRegistry.githubAPIErrors[operation][statusCode]++
}

func IncDeployment(status string) {
	defaultRegistry.mu.Lock()
	defaultRegistry.deployments[status]++
	defaultRegistry.mu.Unlock()
}

func SetPreviewSessionsActive(n int) {
	defaultRegistry.mu.Lock()
	defaultRegistry.previewSessionsActive = int64(n)
	defaultRegistry.mu.Unlock()
}

func RenderPrometheus() string {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("# TYPE tooldesk_tool_calls_total counter\n")
	toolNames := sortedKeys(defaultRegistry.toolCalls)
	for _, tool := range toolNames {
		statuses := sortedKeys(defaultRegistry.toolCalls[tool])
		for _, status := range statuses {
			sb.WriteString(fmt.Sprintf("tooldesk_tool_calls_total{tool=\"%s\",status=\"%s\"} %d\n", tool, status, defaultRegistry.toolCalls[tool][status]))
		}
	}

	sb.WriteString("# TYPE tooldesk_tool_duration_seconds_bucket counter\n")
	bucketLabels := []string{"0.1", "0.5", "1", "2", "5", "10", "30", "60", "+Inf"}
	for _, tool := range sortedKeys(defaultRegistry.toolDurationBuckets) {
		counts := defaultRegistry.toolDurationBuckets[tool]
		for i, v := range counts {
			sb.WriteString(fmt.Sprintf("tooldesk_tool_duration_seconds_bucket{tool=\"%s\",le=\"%s\"} %d\n", tool, bucketLabels[i], v))
		}
	}

	sb.WriteString("# TYPE tooldesk_http_requests_total counter\n")
	for _, method := range sortedKeys(defaultRegistry.httpRequests) {
		statusCodes := make([]int, 0, len(defaultRegistry.httpRequests[method]))
		for sc := range defaultRegistry.httpRequests[method] {
			statusCodes = append(statusCodes, sc)
		}
		sort.Ints(statusCodes)
		for _, sc := range statusCodes {
			sb.WriteString(fmt.Sprintf("tooldesk_http_requests_total{method=\"%s\",status=\"%d\"} %d\n", method, sc, defaultRegistry.httpRequests[method][sc]))
		}
	}

	sb.WriteString("# TYPE tooldesk_github_api_errors_total counter\n")
	for _, op := range sortedKeys(defaultRegistry.githubAPIErrors) {
		statusCodes := make([]int, 0, len(defaultRegistry.githubAPIErrors[op]))
		for sc := range defaultRegistry.githubAPIErrors[op] {
			statusCodes = append(statusCodes, sc)
		}
		sort.Ints(statusCodes)
		for _, sc := range statusCodes {
			sb.WriteString(fmt.Sprintf("tooldesk_github_api_errors_total{operation=\"%s\",status_code=\"%d\"} %d\n", op, sc, defaultRegistry.githubAPIErrors[op][sc]))
		}
	}

	sb.WriteString("# TYPE tooldesk_deployments_total counter\n")
	for _, status := range sortedKeys(defaultRegistry.deployments) {
		sb.WriteString(fmt.Sprintf("tooldesk_deployments_total{status=\"%s\"} %d\n", status, defaultRegistry.deployments[status]))
	}

	sb.WriteString("# TYPE tooldesk_preview_sessions_active gauge\n")
	sb.WriteString(fmt.Sprintf("tooldesk_preview_sessions_active %d\n", defaultRegistry.previewSessionsActive))

	return sb.String()
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
