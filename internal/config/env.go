package config

import (
	"fmt"
	"os"
	"strconv"
)

func mergeString(dst *string, overlay string) {
	if overlay != "" {
		*dst = overlay
	}
}

func envString(dst *string, name string) {
	if name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// envInt sets dst from the named variable. An unset variable leaves dst
// unchanged; a non-integer value is an error.
func envInt(dst *int, name string) error {
	if name == "" {
		return nil
	}
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}
