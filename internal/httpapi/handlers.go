package httpapi

import (
	"net/http"

	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/service"
)

type createProfileReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type putDeckReq struct {
	Name    string   `json:"name"`
	Cards   []string `json:"cards"`
	Current bool     `json:"current"`
}

type playReq struct {
	PlayerID string `json:"player_id"`
	Card     string `json:"card"`
	Target   string `json:"target,omitempty"`
}

type skipReq struct {
	PlayerID string `json:"player_id"`
}

type skipResp struct {
	Battle battle.View `json:"battle"`
	Healed int         `json:"healed"`
}

type eventsResp struct {
	Events []battle.Event `json:"events"`
}

func (h *Handler) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileReq
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	p, err := h.svc.CreateProfile(r.Context(), req.ID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePutDeck(w http.ResponseWriter, r *http.Request) {
	var req putDeckReq
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	d := card.Deck{ID: r.PathValue("deck"), Name: req.Name, Cards: req.Cards}
	p, err := h.svc.PutDeck(r.Context(), r.PathValue("id"), d, req.Current)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// count defaults to 1
func (h *Handler) handlePull(w http.ResponseWriter, r *http.Request) {
	count, ok, msg := parseInt(r, "count")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if !ok {
		count = 1
	}
	res, err := h.svc.Pull(r.Context(), r.PathValue("id"), count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := service.SimulateRequest{
		Banner: r.URL.Query().Get("banner"),
		Goal:   gacha.TrialGoal(r.URL.Query().Get("goal")),
	}
	var msg string
	if req.Trials, _, msg = parseInt(r, "trials"); msg != "" {
		badRequest(w, msg)
		return
	}
	if req.Budget, _, msg = parseInt(r, "budget"); msg != "" {
		badRequest(w, msg)
		return
	}
	if req.FirstTime, _, msg = parseBool(r, "first_time"); msg != "" {
		badRequest(w, msg)
		return
	}
	if req.TenPulls, _, msg = parseBool(r, "ten_pulls"); msg != "" {
		badRequest(w, msg)
		return
	}
	seed, hasSeed, msg := parseInt(r, "seed")
	if msg != "" || seed < 0 {
		badRequest(w, "invalid seed")
		return
	}
	if hasSeed {
		s := uint64(seed)
		req.Seed = &s
	}

	o := &req.Overrides
	for _, f := range []struct {
		key string
		dst **float64
	}{
		{"rate_5star", &o.Rate5Star},
		{"rate_5star_first_time", &o.Rate5StarFirstTime},
		{"rate_4star", &o.Rate4Star},
		{"spook_rate", &o.SpookRate},
	} {
		v, ok, msg := parseFloat(r, f.key)
		if msg != "" {
			badRequest(w, msg)
			return
		}
		if ok {
			*f.dst = &v
		}
	}
	spooks, ok, msg := parseInt(r, "max_spooks")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	if ok {
		o.MaxSpooks = &spooks
	}

	res, err := h.svc.Simulate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req service.StartRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	if req.ProfileID == "" {
		badRequest(w, "missing profile_id")
		return
	}
	v, err := h.svc.StartBattle(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Battle(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleBattleEvents(w http.ResponseWriter, r *http.Request) {
	since, _, msg := parseInt(r, "since_turn")
	if msg != "" {
		badRequest(w, msg)
		return
	}
	evs, err := h.svc.BattleEvents(r.PathValue("id"), since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResp{Events: evs})
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playReq
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	if req.PlayerID == "" || req.Card == "" {
		badRequest(w, "missing player_id or card")
		return
	}
	v, err := h.svc.Play(r.Context(), r.PathValue("id"), req.PlayerID, req.Card, req.Target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	var req skipReq
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid body: "+err.Error())
		return
	}
	if req.PlayerID == "" {
		badRequest(w, "missing player_id")
		return
	}
	v, healed, err := h.svc.Skip(r.Context(), r.PathValue("id"), req.PlayerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skipResp{Battle: v, Healed: healed})
}
