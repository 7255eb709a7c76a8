package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/aitools/internal/telemetry"
)

var tracer = telemetry.Tracer("aitools/source")

// maxResponseBytes bounds how much of a remote body is decoded.
const maxResponseBytes = 8 << 20

// getJSON issues a GET to endpoint and decodes a 2xx JSON body into dest.
// Non-2xx responses become *StatusError; undecodable bodies wrap
// ErrMalformedResponse.
func getJSON(ctx context.Context, client *http.Client, backend, endpoint string, header http.Header, dest any) error {
	ctx, span := tracer.Start(ctx, "source.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("aitools.backend", backend),
			attribute.String("http.url", endpoint),
		),
	)
	defer span.End()

	err := doGet(ctx, client, endpoint, header, dest, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func doGet(ctx context.Context, client *http.Client, endpoint string, header http.Header, dest any, span trace.Span) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("source: create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("source: GET %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Endpoint: req.URL.Path, Body: string(body)}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, req.URL.Path, err)
	}
	return nil
}
