package router

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/address"
	"github.com/ajcoder25/bookverse/pkg/ai"
	"github.com/ajcoder25/bookverse/pkg/apperr"
	"github.com/ajcoder25/bookverse/pkg/auth"
	"github.com/ajcoder25/bookverse/pkg/cart"
	"github.com/ajcoder25/bookverse/pkg/catalog"
	"github.com/ajcoder25/bookverse/pkg/checkout"
	"github.com/ajcoder25/bookverse/pkg/global"
	"github.com/ajcoder25/bookverse/pkg/models"
	"github.com/ajcoder25/bookverse/pkg/wishlist"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services behind the HTTP routes.
type Handler struct {
	DB          Pinger
	Carts       *cart.Engine
	Addresses   *address.Enforcer
	Checkout    *checkout.Service
	Wishlist    *wishlist.Service
	Auth        *auth.Service
	Catalog     *catalog.Client
	Recommender *ai.Recommender
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := global.GetDefaultTimerFrom(c.Request.Context())
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Database connection failed", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"status": "OK", "database": "Connected"}))
}

// Auth

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, user, err := h.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{"token": token, "user": user}))
}

// Catalog

func (h *Handler) SearchBooks(c *gin.Context) {
	result, err := h.Catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(result))
}

func (h *Handler) ListBooks(c *gin.Context) {
	books, err := h.Catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(books))
}

func (h *Handler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	book, err := h.Catalog.Create(c.Request.Context(), req.ToBook())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(book))
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(categories))
}

func (h *Handler) GetBook(c *gin.Context) {
	book, err := h.Catalog.Volume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(book))
}

// Cart

func (h *Handler) GetCart(c *gin.Context) {
	current, err := h.Carts.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(current.View()))
}

// AddToCart accepts the item reference in any of its shapes (bookId, id,
// _id or a nested book object) alongside the line details.
func (h *Handler) AddToCart(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		bindError(c, err)
		return
	}
	ref, err := cart.ParseItemRef(raw)
	if err != nil {
		bindError(c, err)
		return
	}
	var req models.AddToCartRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.Carts.Add(c.Request.Context(), currentUser(c), ref, req.Quantity, cart.LineDetails{
		UnitPrice: req.Price,
		Title:     req.Title,
		Author:    req.Author,
		ImageURL:  req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(updated.View()))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	updated, err := h.Carts.UpdateQuantity(c.Request.Context(), currentUser(c), cart.Ref(c.Param("itemKey")), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(updated.View()))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	updated, err := h.Carts.Remove(c.Request.Context(), currentUser(c), cart.Ref(c.Param("itemKey")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(updated.View()))
}

func (h *Handler) ClearCart(c *gin.Context) {
	cleared, err := h.Carts.Clear(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cleared.View()))
}

// Addresses

func (h *Handler) GetAddresses(c *gin.Context) {
	addresses, err := h.Addresses.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addresses))
}

func (h *Handler) CreateAddress(c *gin.Context) {
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := currentUser(c)
	addresses, err := h.Addresses.Create(c.Request.Context(), userID, req.ToAddress(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(addresses))
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	id, ok := addressID(c)
	if !ok {
		return
	}
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID := currentUser(c)
	addresses, err := h.Addresses.Update(c.Request.Context(), userID, id, req.ToAddress(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addresses))
}

func (h *Handler) DeleteAddress(c *gin.Context) {
	id, ok := addressID(c)
	if !ok {
		return
	}

	addresses, err := h.Addresses.Delete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(addresses))
}

// addressID parses the :id path parameter. An id that is not an ObjectID
// cannot name a stored address.
func addressID(c *gin.Context) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.AddressNotFound, "address not found"))
		return bson.NilObjectID, false
	}
	return id, true
}

// Orders

func (h *Handler) GetOrders(c *gin.Context) {
	orders, err := h.Checkout.ListOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(orders))
}

// CreateOrder checks out the cart. The body is optional; without an
// address_id the default address is used.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	shipTo := bson.NilObjectID
	if req.AddressID != "" {
		id, err := bson.ObjectIDFromHex(req.AddressID)
		if err != nil {
			respondError(c, &apperr.Error{Kind: apperr.AddressNotFound, Message: "address not found", Fields: []string{"address_id"}})
			return
		}
		shipTo = id
	}

	order, err := h.Checkout.Checkout(c.Request.Context(), currentUser(c), shipTo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(order))
}

// Wishlist

type wishlistRequest struct {
	Title string `json:"title"`
}

func (h *Handler) GetWishlist(c *gin.Context) {
	w, err := h.Wishlist.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(w))
}

func (h *Handler) AddToWishlist(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		bindError(c, err)
		return
	}
	ref, err := cart.ParseItemRef(raw)
	if err != nil {
		bindError(c, err)
		return
	}
	var req wishlistRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		bindError(c, err)
		return
	}

	w, err := h.Wishlist.Add(c.Request.Context(), currentUser(c), ref, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(w))
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
	w, err := h.Wishlist.Remove(c.Request.Context(), currentUser(c), cart.Ref(c.Param("itemKey")))
	if err != nil {
		respondNotFound(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(w))
}

// Recommendations

func (h *Handler) GetRecommendations(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	current, err := h.Carts.Get(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := h.Wishlist.Get(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	cartTitles := []string{}
	for _, line := range current.Items {
		if line.Title != "" {
			cartTitles = append(cartTitles, line.Title)
		}
	}

	c.JSON(http.StatusOK, global.SuccessResponse(h.Recommender.Recommend(ctx, cartTitles, w.Titles())))
}
