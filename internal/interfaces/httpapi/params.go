package httpapi

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
)

func parseOptionalPositiveInt(raw, name string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, errors.Wrapf(usecase.ErrValidation, "%s must be a positive integer, got %q", name, raw)
	}
	return &v, nil
}
