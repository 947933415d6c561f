package service

import (
	"fmt"
	"strconv"
	"strings"
)

// clockMinutes converts a wall-clock "HH:MM" string into minutes since
// midnight. Malformed values yield an error; ranges are not checked since
// legacy data may carry values like "24:00".
func clockMinutes(raw string) (int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock hours %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock minutes %q", raw)
	}
	return hours*60 + minutes, nil
}
