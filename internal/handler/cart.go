package handler

import (
	"net/http"

	"github.com/xenking/shoplist/internal/domain/cart"
)

type cartLineView struct {
	Product   productView `json:"product"`
	Quantity  int         `json:"quantity"`
	LineTotal string      `json:"lineTotal"`
}

type cartView struct {
	Items             []cartLineView `json:"items"`
	IsCheckoutVisible bool           `json:"isCheckoutVisible"`
	Total             string         `json:"total"`
	ItemCount         int            `json:"itemCount"`
}

func toCartView(st cart.State) cartView {
	items := make([]cartLineView, len(st.Lines))
	for i, l := range st.Lines {
		items[i] = cartLineView{
			Product:   toProductView(l.Product, false),
			Quantity:  l.Quantity,
			LineTotal: l.Total().StringFixed(2),
		}
	}
	return cartView{
		Items:             items,
		IsCheckoutVisible: st.CheckoutVisible,
		Total:             st.FormattedTotal(),
		ItemCount:         st.ItemCount(),
	}
}

func (h *Handler) respondCart(w http.ResponseWriter) {
	respond(w, http.StatusOK, toCartView(h.cart.Snapshot()))
}

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request) {
	h.respondCart(w)
}

type addToCartRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

// addToCart copies the product from the loaded catalog page into the cart.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !h.decode(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	p, err := h.catalog.Snapshot().Product(req.ProductID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.cart.AddToCart(p, qty); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCart(w)
}

func (h *Handler) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.updateQuantity(w, r, true)
}

func (h *Handler) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.updateQuantity(w, r, false)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request, increment bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.cart.UpdateQuantity(id, increment)
	h.respondCart(w)
}

type checkoutRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

func (h *Handler) setCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.cart.SetCheckoutVisible(*req.Visible)
	h.respondCart(w)
}

// confirmOrder answers with the order as it was confirmed; the cart is empty
// afterwards.
func (h *Handler) confirmOrder(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, toCartView(h.cart.Confirm()))
}

func (h *Handler) clearCart(w http.ResponseWriter, _ *http.Request) {
	h.cart.ClearCart()
	h.respondCart(w)
}
