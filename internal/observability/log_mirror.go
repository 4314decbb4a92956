package observability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andrei73/pushup-counter/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	logMirrorScope    = "github.com/andrei73/pushup-counter/internal/platform/logging"
	logEventNamespace = "pushup."
	requestLogMessage = "http request"
)

// attributeKeys renames the service's log keys to the attribute names dashboards query on.
// Keys missing here are exported under pushup.<key>.
var attributeKeys = map[string]string{
	"user_id":         "enduser.id",
	"actor_id":        "pushup.actor.id",
	"elevated":        "pushup.actor.elevated",
	"entry_id":        "pushup.entry.id",
	"competition_id":  "pushup.competition.id",
	"winner_user_id":  "pushup.competition.winner.user_id",
	"winner_total":    "pushup.competition.winner.total",
	"from":            "pushup.competition.status.from",
	"to":              "pushup.competition.status.to",
	"year":            "pushup.period.year",
	"month":           "pushup.period.month",
	"job":             "pushup.job.name",
	"dispatch_id":     "pushup.job.dispatch_id",
	"idempotency_key": "pushup.webhook.idempotency_key",
	"event":           "pushup.webhook.event",
	"method":          "http.request.method",
	"path":            "url.path",
	"status_code":     "http.response.status_code",
	"duration_ms":     "http.server.duration_ms",
	"remote_addr":     "client.address",
	"error":           "exception.message",
}

// silentRequestPaths are polled by load balancers and Prometheus.
var silentRequestPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

func newLogMirror(serviceVersion string) logging.MirrorFunc {
	otelLogger := otelglobal.Logger(logMirrorScope, otellog.WithInstrumentationVersion(serviceVersion))

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if isSilentRequest(msg, args) {
			return
		}

		event := logEventName(msg)
		severity := otelSeverity(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: event}) {
			return
		}

		now := time.Now().UTC()
		var record otellog.Record
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(level.CapitalString())
		record.SetEventName(event)
		record.SetBody(otellog.StringValue(msg))
		record.AddAttributes(logAttributes(args)...)

		otelLogger.Emit(ctx, record)
	}
}

func isSilentRequest(msg string, args []any) bool {
	if msg != requestLogMessage {
		return false
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, _ := args[i].(string); key == "path" {
			path, _ := args[i+1].(string)
			return silentRequestPaths[path]
		}
	}
	return false
}

// logEventName turns "competition winner determined" into "pushup.competition_winner_determined".
func logEventName(msg string) string {
	return logEventNamespace + strings.Join(strings.Fields(strings.ToLower(msg)), "_")
}

func attributeKey(key string) string {
	if mapped, ok := attributeKeys[key]; ok {
		return mapped
	}
	return logEventNamespace + key
}

func logAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, _ := args[i].(string)
		if strings.TrimSpace(key) == "" {
			key = "arg_" + strconv.Itoa(i/2)
		}
		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(attributeKey(key)))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: attributeKey(key), Value: logValue(args[i+1])})
	}
	return attrs
}

func logValue(value any) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case int64:
		return otellog.Int64Value(v)
	case uint32:
		return otellog.Int64Value(int64(v))
	case float64:
		return otellog.Float64Value(v)
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case time.Month:
		return otellog.IntValue(int(v))
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	case []string:
		items := make([]otellog.Value, len(v))
		for i, s := range v {
			items[i] = otellog.StringValue(s)
		}
		return otellog.SliceValue(items...)
	case map[string]string:
		kvs := make([]otellog.KeyValue, 0, len(v))
		for k, s := range v {
			kvs = append(kvs, otellog.String(k, s))
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(v))
	}
}

func otelSeverity(level zapcore.Level) otellog.Severity {
	switch level {
	case zapcore.DebugLevel:
		return otellog.SeverityDebug
	case zapcore.InfoLevel:
		return otellog.SeverityInfo
	case zapcore.WarnLevel:
		return otellog.SeverityWarn
	case zapcore.ErrorLevel:
		return otellog.SeverityError
	default:
		if level < zapcore.DebugLevel {
			return otellog.SeverityTrace
		}
		return otellog.SeverityFatal
	}
}
