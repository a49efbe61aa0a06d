package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"honeyhive/internal/service/customer"
)

func (h *handlers) issueGuest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deviceId": h.deps.CustomerSvc.NewDeviceID()})
}

func (h *handlers) signup(c *gin.Context) {
	var in customer.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.deps.CustomerSvc.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": created})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deviceID := c.GetString(ctxDeviceID)
	token, cust, err := h.deps.CustomerSvc.Login(c.Request.Context(), deviceID, in.Email, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token, "customer": cust})
}

func (h *handlers) logout(c *gin.Context) {
	deviceID := c.GetString(ctxDeviceID)
	h.deps.CustomerSvc.Logout(c.Request.Context(), deviceID, bearerToken(c))
	c.Status(http.StatusNoContent)
}
