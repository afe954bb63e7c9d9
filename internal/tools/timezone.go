package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/runeberg/flare/internal/provider"
)

// Clock handles "time in <city>" queries via the IANA zone database.
type Clock struct {
	// now is the clock source, swappable in tests.
	now func() time.Time
}

// NewClock returns the time-zone short-circuit.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Name implements Tool.
func (c *Clock) Name() string { return "time" }

// cityZones maps lowercase city names to IANA zone identifiers.
var cityZones = map[string]string{
	"amsterdam":     "Europe/Amsterdam",
	"beijing":       "Asia/Shanghai",
	"berlin":        "Europe/Berlin",
	"chicago":       "America/Chicago",
	"delhi":         "Asia/Kolkata",
	"dubai":         "Asia/Dubai",
	"hong kong":     "Asia/Hong_Kong",
	"london":        "Europe/London",
	"los angeles":   "America/Los_Angeles",
	"madrid":        "Europe/Madrid",
	"moscow":        "Europe/Moscow",
	"mumbai":        "Asia/Kolkata",
	"new york":      "America/New_York",
	"oslo":          "Europe/Oslo",
	"paris":         "Europe/Paris",
	"rome":          "Europe/Rome",
	"san francisco": "America/Los_Angeles",
	"sao paulo":     "America/Sao_Paulo",
	"seoul":         "Asia/Seoul",
	"shanghai":      "Asia/Shanghai",
	"singapore":     "Asia/Singapore",
	"stockholm":     "Europe/Stockholm",
	"sydney":        "Australia/Sydney",
	"tokyo":         "Asia/Tokyo",
	"toronto":       "America/Toronto",
	"utc":           "UTC",
}

// Evaluate implements Tool. The accepted shape is "time in <city>" for
// a known city.
func (c *Clock) Evaluate(query string) (Result, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	city, ok := strings.CutPrefix(q, "time in ")
	if !ok {
		return Result{}, false
	}
	city = strings.TrimSpace(city)

	zone, ok := cityZones[city]
	if !ok {
		return Result{}, false
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Result{}, false
	}

	local := c.now().In(loc)
	abbrev, _ := local.Zone()

	return Result{
		Candidate: provider.Candidate{
			Title:    local.Format("15:04"),
			Subtitle: fmt.Sprintf("%s, %s (%s)", titleCase(city), local.Format("Mon Jan 2"), abbrev),
			Category: provider.CategoryConversion,
			Action:   provider.NoopAction{},
		},
		Score: ShortCircuitScore,
	}, true
}

// titleCase capitalizes each word. City keys are plain ASCII.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
