package fredseries

import (
	"time"

	"github.com/fredseries/fred-mcp-server/internal/apperr"
)

func errDateOrder(id SeriesID, prev, next time.Time) error {
	return apperr.New(apperr.Internal, "series %s: dates not strictly ascending: %s then %s",
		id, prev.Format(DateLayout), next.Format(DateLayout))
}
