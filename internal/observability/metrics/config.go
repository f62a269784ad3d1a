package metrics

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Config names the service for instrument scoping.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) serviceName() string {
	name := strings.TrimSpace(c.ServiceName)
	if name == "" {
		return "civicscore"
	}
	return name
}

// FilterAttributes drops attributes with empty values to keep cardinality in
// check.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Value.Emit() == "" {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
