package service

import (
	"errors"
	"regexp"
	"strings"

	apperrors "github.com/realtoken-portfolio/internal/errors"
)

var errEmptyCatalog = errors.New("catalog feed returned no assets")

var addressPattern = regexp.MustCompile("^0x[a-fA-F0-9]{40}$")

// normalizeAddresses validates wallet addresses and returns them lower-cased
// and de-duplicated, in first-seen order
func normalizeAddresses(addresses []string) ([]string, error) {
	if len(addresses) == 0 {
		return nil, apperrors.NewInvalidParameterError("addresses", "at least one address is required")
	}

	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if !addressPattern.MatchString(addr) {
			return nil, apperrors.NewInvalidAddressError(addr)
		}
		addr = strings.ToLower(addr)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}
