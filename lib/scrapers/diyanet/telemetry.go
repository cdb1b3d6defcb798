package diyanet

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/diyanet")
