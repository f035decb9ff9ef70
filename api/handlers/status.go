package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/services/poller"
)

// Status reports the poll loop state plus the size of the persisted
// seen-account set. The set is read through the store, not cached, so the
// endpoint reflects manual file edits too.
func Status(p *poller.Poller, store interfaces.SeenAccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := p.Status()

		accounts, err := store.Load(c.Request.Context())
		if err == nil {
			status.SeenAccounts = len(accounts)
		}

		c.JSON(http.StatusOK, status)
	}
}
