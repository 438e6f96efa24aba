package reconcile

import "fmt"

// Strategy selects how a diff is applied to the table.
type Strategy string

const (
	// Incremental applies only the inserts and deletes of the diff.
	Incremental Strategy = "incremental"

	// Replace empties the table and re-inserts the whole desired set.
	Replace Strategy = "replace"
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = Incremental

// ParseStrategy parses a strategy name. The empty string selects
// DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return DefaultStrategy, nil
	case Incremental, Replace:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q: must be %s or %s", s, Incremental, Replace)
	}
}
