package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"lxrose/internal/forms"
)

type contactStats struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
	Unread   int64 `json:"unread"`
}

type joinStats struct {
	Total    int64 `json:"total"`
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
}

type dashboardResponse struct {
	ContactForms contactStats           `json:"contactForms"`
	JoinForms    joinStats              `json:"joinForms"`
	Bookings     map[string]forms.Stats `json:"bookings"`
	Timestamp    time.Time              `json:"timestamp"`
}

/*
GET /api/analytics/dashboard
- Counts are computed by the store, one kind per goroutine
*/
func Dashboard(store FormStore, now func() time.Time) gin.HandlerFunc {
	const route = "Dashboard"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		at := now()
		var (
			mu    sync.Mutex
			stats = make(map[*forms.Kind]forms.Stats, len(forms.All))
		)
		g, gctx := errgroup.WithContext(ctx)
		for _, kind := range forms.All {
			g.Go(func() error {
				s, err := store.FormStats(gctx, kind, at)
				if err != nil {
					return err
				}
				mu.Lock()
				stats[kind] = s
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			respondStoreError(c, route, err)
			return
		}

		contact := stats[forms.Contact]
		join := stats[forms.Join]
		resp := dashboardResponse{
			ContactForms: contactStats{
				Total:    contact.Total,
				Today:    contact.Today,
				ThisWeek: contact.ThisWeek,
				Unread:   contact.Pending,
			},
			JoinForms: joinStats{
				Total:    join.Total,
				Today:    join.Today,
				ThisWeek: join.ThisWeek,
			},
			Bookings:  make(map[string]forms.Stats, len(forms.Bookings)),
			Timestamp: at,
		}
		for _, kind := range forms.Bookings {
			resp.Bookings[kind.Slug] = stats[kind]
		}

		c.JSON(http.StatusOK, resp)
	}
}
