package rate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Point is one day of a rate series. Source is the tier that observed it.
type Point struct {
	Date   time.Time       `json:"date"`
	Rate   decimal.Decimal `json:"rate"`
	Source Source          `json:"source,omitempty"`
}
