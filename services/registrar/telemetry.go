package registrar

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/registrar")
