package httpapi

import "net/http"

func (h *Handler) handleShop(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Shop())
}

func (h *Handler) handleShopQuote(w http.ResponseWriter, r *http.Request) {
	pulls, ok, msg := parseInt(r, "pulls")
	if !ok {
		if msg == "" {
			msg = "missing param pulls"
		}
		badRequest(w, msg)
		return
	}
	q, err := h.svc.QuotePulls(r.Context(), r.PathValue("id"), pulls)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleShopBudget(w http.ResponseWriter, r *http.Request) {
	cents, ok, msg := parseInt(r, "cents")
	if !ok {
		if msg == "" {
			msg = "missing param cents"
		}
		badRequest(w, msg)
		return
	}
	plan, err := h.svc.QuoteBudget(cents)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
