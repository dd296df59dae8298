package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

// parseISODate accepts only YYYY-MM-DD on the command line; 03/04/2024 means
// different days to different users.
func parseISODate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
