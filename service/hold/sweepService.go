package holdsvc

import (
	"context"
	"time"

	"vehiclerental/model"
)

func (s *service) ExpireSweep(ctx context.Context) (int, error) {
	rows, err := s.r.ListExpiredHolds(ctx, s.clk.Now())
	if err != nil {
		return 0, err
	}

	// Each hold is resolved on its own so one slow release never delays
	// the rest of the batch.
	resolved := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
		b, unitID, err := s.resolve(ctx, row.BookingCode, model.BookingExpired, model.ReleaseExpired, nil)
		if err != nil {
			if Code(err) == ErrAlreadyResolved || Code(err) == ErrNotFound {
				continue
			}
			s.log.Error("expire hold", "booking_code", row.BookingCode, "err", err)
			continue
		}

		s.releaseUnit(ctx, unitID, b.Code)
		s.n.Emit(model.BookingEvent{
			Type:        model.EventBookingExpired,
			BookingCode: b.Code,
			Message:     "payment window elapsed, unit released",
			Amount:      b.TotalPrice,
		})
		resolved++
	}
	return resolved, nil
}

// Run drives the sweep on a fixed interval until the context ends. Started
// from main next to the HTTP server.
func (s *service) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.ExpireSweep(ctx)
			if err != nil && ctx.Err() == nil {
				s.log.Error("expiry sweep", "err", err)
				continue
			}
			if n > 0 {
				s.log.Info("expiry sweep", "resolved", n)
			}
		}
	}
}
