package availability

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/availability")
