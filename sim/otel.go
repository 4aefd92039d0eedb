package sim

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/a-bouts/dinghy-sim/sim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
