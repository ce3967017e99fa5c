package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/store"
)

// ActiveSubjectLoader puts the persisted active subject identifier, when
// one exists, into the request context so streak routes can address
// "current" without the caller repeating the identifier.
func ActiveSubjectLoader(st store.Store, log *zap.Logger, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok, err := st.Get(store.SubjectKey())
		if err != nil {
			log.Error("Failed to load active subject from store", zap.Error(err))
			c.Next()
			return
		}
		if ok && id != "" {
			c.Set(contextKey, id)
		}
		c.Next()
	}
}
