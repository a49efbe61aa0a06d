package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"honeyhive/internal/cartstore"
	"honeyhive/internal/domain"
	"honeyhive/internal/service/checkout"
)

type cartResponse struct {
	LineItems  []domain.CartLine `json:"lineItems"`
	TotalItems int               `json:"totalItems"`
	TotalCents int64             `json:"totalCents"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{
		LineItems:  lines,
		TotalItems: cart.TotalItems(),
		TotalCents: cart.TotalCents(),
	}
}

func (h *handlers) getCart(c *gin.Context) {
	store := h.cartStore(c)
	if err := store.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store.Cart()))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var in cartstore.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store := h.cartStore(c)
	if err := store.AddItem(c.Request.Context(), in); err != nil {
		if errors.Is(err, cartstore.ErrProductRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store.Cart()))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var in quantityRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store := h.cartStore(c)
	if err := store.UpdateQuantity(c.Request.Context(), c.Param("lineId"), in.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store.Cart()))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	store := h.cartStore(c)
	if err := store.RemoveItem(c.Request.Context(), c.Param("lineId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(store.Cart()))
}

func (h *handlers) clearCart(c *gin.Context) {
	store := h.cartStore(c)
	if err := store.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) placeOrder(c *gin.Context) {
	store := h.cartStore(c)
	if err := store.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	order, err := h.deps.CheckoutSvc.PlaceOrder(c.Request.Context(), c.GetString(ctxUserID), store)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.CheckoutSvc.ListOrders(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
