package executor

import (
	"fmt"
	"os"
	"strings"
)

// EnvironmentError reports external tools that are missing or not
// executable. It is fatal: the run aborts before the loop starts.
type EnvironmentError struct {
	Missing []string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment unavailable: missing tools: %s", strings.Join(e.Missing, ", "))
}

// ValidateTools checks that every listed tool exists and is executable.
// Consulted once before the loop starts.
func ValidateTools(tools []string) error {
	var missing []string
	for _, tool := range tools {
		info, err := os.Stat(tool)
		if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return &EnvironmentError{Missing: missing}
	}
	return nil
}
