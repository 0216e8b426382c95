package gridlite

import "fmt"

// ConfigurationError reports a reference to a column that does not exist.
// It indicates a programming mistake rather than a data condition.
type ConfigurationError struct {
	Field string
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("no column configured for field %q", err.Field)
}
