package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MEventHandlerResults     MetricKey = "event_handler_results_total"
	MEventHandlerDuration    MetricKey = "event_handler_duration_seconds"
	MStockOperations         MetricKey = "stock_operations_total"
)

// MetricSpec describes how a MetricKey is exposed by a metrics backend.
type MetricSpec struct {
	Key     MetricKey
	Help    string
	Labels  []string
	Buckets []float64
}

// CounterSpecs lists every counter the service records.
var CounterSpecs = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Use case executions by outcome.", Labels: []string{"use_case", "outcome"}},
	{Key: MHTTPRequests, Help: "HTTP requests served.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequests, Help: "Calls to external dependencies.", Labels: []string{"peer", "endpoint", "outcome"}},
	{Key: MEventHandlerResults, Help: "Event handler invocations by outcome.", Labels: []string{"event", "handler", "outcome"}},
	{Key: MStockOperations, Help: "Conditional stock updates by result.", Labels: []string{"op", "result"}},
}

// HistogramSpecs lists every histogram the service records.
var HistogramSpecs = []MetricSpec{
	{Key: MUsecaseDuration, Help: "Use case latency in seconds.", Labels: []string{"use_case"}},
	{Key: MHTTPRequestDuration, Help: "HTTP request latency in seconds.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequestDuration, Help: "External call latency in seconds.", Labels: []string{"peer", "endpoint"}},
	{Key: MEventHandlerDuration, Help: "Event handler latency in seconds.", Labels: []string{"event", "handler"}},
}
