package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/concierge.txt
var conciergeRaw string

// Concierge returns the trimmed system instruction for the reservation
// agent. The template keeps a {current_date} placeholder that the
// conversation layer fills at turn time.
func Concierge() string {
	return strings.TrimSpace(conciergeRaw)
}
