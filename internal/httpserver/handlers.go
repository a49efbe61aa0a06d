package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"honeyhive/internal/cartstore"
	"honeyhive/internal/domain"
	"honeyhive/internal/service/customer"
)

type handlers struct {
	deps     Deps
	sessions *sessions
	logger   *log.Logger
}

const (
	ctxDeviceID = "deviceID"
	ctxUserID   = "userID"
)

// requireDevice resolves the caller's device identity from X-Device-ID.
func (h *handlers) requireDevice(c *gin.Context) {
	deviceID := strings.TrimSpace(c.GetHeader("X-Device-ID"))
	if deviceID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Device-ID header required"})
		return
	}
	c.Set(ctxDeviceID, deviceID)
	c.Next()
}

// requireUser resolves the bearer token to a user id.
func (h *handlers) requireUser(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set(ctxUserID, userID)
	c.Next()
}

func (h *handlers) requireAdmin(c *gin.Context) {
	if h.deps.AdminToken == "" || bearerToken(c) != h.deps.AdminToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
		return
	}
	c.Next()
}

func (h *handlers) authenticatedUser(c *gin.Context) (string, bool) {
	token := bearerToken(c)
	if token == "" {
		return "", false
	}
	userID, err := h.deps.CustomerSvc.Authenticate(token)
	if err != nil {
		return "", false
	}
	return userID, true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// cartStore returns the device's cart store with its identity aligned to
// the request's auth state. A valid bearer token realigns a guest store
// (idempotent after login); requests without a token leave the store as
// is, logout goes through the auth signal.
func (h *handlers) cartStore(c *gin.Context) *cartstore.Store {
	deviceID := c.GetString(ctxDeviceID)
	store := h.sessions.storeFor(deviceID)
	if userID, ok := h.authenticatedUser(c); ok {
		if store.Identity().UserID != userID {
			if err := store.HandleAuthChange(c.Request.Context(), &userID); err != nil {
				h.logger.Printf("align cart for device %s: %v", deviceID, err)
			}
		}
	}
	return store
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, customer.ErrInvalidCredentials), errors.Is(err, customer.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
