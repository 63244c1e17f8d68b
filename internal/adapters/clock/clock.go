package clock

import (
	"time"

	"github.com/randomtoy/horobingo-go/internal/domain"
)

// Local reports the calendar day in the given location.
type Local struct {
	loc *time.Location
	now func() time.Time
}

// NewLocal returns a clock for loc; nil means the process's local zone.
func NewLocal(loc *time.Location) *Local {
	if loc == nil {
		loc = time.Local
	}
	return &Local{loc: loc, now: time.Now}
}

func (c *Local) Today() string {
	return c.now().In(c.loc).Format(domain.DateLayout)
}
