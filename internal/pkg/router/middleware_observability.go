package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// bodyLogLimit caps how much of a request or response body reaches the logs.
const bodyLogLimit = 16 * 1024

// queryTokenKey is the query parameter SSE clients authenticate with. It is
// always masked in logged URIs, whatever the configured mask fields are.
const queryTokenKey = "access_token"

const maskedValue = "***"

// recorder captures the status, size and, for JSON replies, the body of a
// response. Streams and binary bodies (the QR PNG) are never buffered.
type recorder struct {
	http.ResponseWriter
	status  int
	written int
	err     error

	capture   bool
	decided   bool
	body      bytes.Buffer
	truncated bool
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if !w.decided {
		w.decided = true
		w.capture = w.capture && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
	}
	if w.capture {
		w.keep(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

func (w *recorder) keep(p []byte) {
	room := bodyLogLimit - w.body.Len()
	if room <= 0 {
		w.truncated = w.truncated || len(p) > 0
		return
	}
	if len(p) > room {
		p = p[:room]
		w.truncated = true
	}
	w.body.Write(p)
}

// SetError lets the endpoint adapter hand the handler error to the span.
func (w *recorder) SetError(err error) { w.err = err }

func (w *recorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("router: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *recorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

type httpObserver struct {
	keys     instrument.MaskKeys
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newHTTPObserver(cfg config.Config, ins instrument.Instrumentation) *httpObserver {
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}

	o := &httpObserver{
		keys:   instrument.NewMaskKeys(append(fields, queryTokenKey, "authorization")),
		tracer: ins.Tracer("portal.http"),
	}

	meter := ins.Meter("portal.http")
	var err error
	if o.requests, err = meter.Int64Counter("portal.http.requests",
		metric.WithDescription("Portal API requests by module, route and status")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if o.latency, err = meter.Float64Histogram("portal.http.duration",
		metric.WithDescription("Portal API latency"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http latency histogram", "error", err)
	}

	return o
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	o := newHTTPObserver(cfg, ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)
			base := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				attribute.String("portal.module", moduleOf(route)),
			}

			ctx, span := o.tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(base...))
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", o.maskURI(r.URL),
				"headers", o.maskHeaders(r.Header),
				"body", o.maskBody(r.Header.Get("Content-Type"), peekBody(r)),
			)

			rec := &recorder{ResponseWriter: w, capture: !isEventStream(r)}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			attrs := append(base, semconv.HTTPResponseStatusCodeKey.Int(status))
			o.finish(span, rec, status, attrs)
			o.record(ctx, start, attrs)

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", o.responseBody(rec),
			)
		})
	}
}

func (o *httpObserver) finish(span trace.Span, rec *recorder, status int, attrs []attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetAttributes(attribute.Int("http.response_content_length", rec.written))

	if rec.err != nil {
		span.RecordError(rec.err)
	}
	switch {
	case status >= http.StatusInternalServerError && rec.err != nil:
		span.SetStatus(codes.Error, rec.err.Error())
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	default:
		span.SetStatus(codes.Ok, "")
	}
}

func (o *httpObserver) record(ctx context.Context, start time.Time, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if o.requests != nil {
		o.requests.Add(ctx, 1, opt)
	}
	if o.latency != nil {
		o.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, opt)
	}
}

func (o *httpObserver) maskURI(u *url.URL) string {
	q := u.Query()
	if len(q) == 0 {
		return u.Path
	}
	for k := range q {
		if o.keys.Has(k) {
			q.Set(k, maskedValue)
		}
	}
	return u.Path + "?" + q.Encode()
}

func (o *httpObserver) maskHeaders(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if o.keys.Has(k) {
			out.Set(k, maskedValue)
		}
	}
	return out
}

func (o *httpObserver) maskBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var doc any
	if json.Unmarshal(body, &doc) == nil {
		return o.keys.Redact(doc)
	}
	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			form := make(map[string]any, len(values))
			for k, v := range values {
				form[k] = strings.Join(v, ",")
			}
			return o.keys.Redact(form)
		}
	}
	if !utf8.Valid(body) {
		return "<binary>"
	}
	return string(body)
}

func (o *httpObserver) responseBody(rec *recorder) any {
	if rec.body.Len() == 0 {
		return nil
	}

	body := o.maskBody("application/json", rec.body.Bytes())
	if rec.truncated {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}

// peekBody reads up to bodyLogLimit bytes and puts them back in front of
// the remaining stream so the handler still sees the whole body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, bodyLogLimit))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// moduleOf maps "/api/v1/governance/..." to "governance".
func moduleOf(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/v1/")
	if !ok {
		return "root"
	}
	mod, _, _ := strings.Cut(rest, "/")
	return mod
}
