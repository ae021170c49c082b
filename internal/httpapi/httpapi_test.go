package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-battle/internal/arena"
	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/pricing"
	"github.com/xtding233/gacha-battle/internal/profile"
	"github.com/xtding233/gacha-battle/internal/random"
	"github.com/xtding233/gacha-battle/internal/service"
)

type staticData struct{ d *gamedata.Data }

func (s staticData) Current() *gamedata.Data { return s.d }

func newServer(t *testing.T) (*httptest.Server, *profile.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := gamedata.NewLoader(filepath.Join("..", "..", "configs", "data"))
	d, err := l.Resolve("", gamedata.Overrides{})
	require.NoError(t, err)
	store := profile.NewMemoryStore()
	svc := service.New(service.Options{
		Store:           store,
		Data:            staticData{d},
		Resolver:        l,
		Arena:           arena.NewManager(arena.Options{Logger: logger}),
		RNG:             random.NewSeeded(5),
		Logger:          logger,
		StartingTickets: 30,
	})
	srv := httptest.NewServer(New(svc, logger))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestProfileAndPullFlow(t *testing.T) {
	srv, _ := newServer(t)

	var p profile.Profile
	require.Equal(t, http.StatusCreated, do(t, "POST", srv.URL+"/profiles", createProfileReq{ID: "ada", Name: "Ada"}, &p))
	assert.Equal(t, 30, p.Tickets)

	var e errResp
	assert.Equal(t, http.StatusConflict, do(t, "POST", srv.URL+"/profiles", createProfileReq{ID: "ada"}, &e))
	assert.Equal(t, service.CodeAlreadyExists, e.Code)

	var res service.PullResult
	require.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/profiles/ada/pull?count=10", nil, &res))
	assert.Len(t, res.Pulls, gacha.TenPull)
	assert.Equal(t, 20, res.Profile.Tickets)

	require.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/profiles/ada/pull", nil, &res))
	assert.Len(t, res.Pulls, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/profiles/ada/pull?count=2", nil, &e))
	assert.Equal(t, service.CodeInvalidArgument, e.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/profiles/ada/pull?count=x", nil, &e))

	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/profiles/ada", nil, &p))
	assert.Equal(t, 19, p.Tickets)
	assert.Equal(t, 11, p.PullCount)

	assert.Equal(t, http.StatusNotFound, do(t, "GET", srv.URL+"/profiles/ghost", nil, &e))
	assert.Equal(t, http.StatusNotFound, do(t, "POST", srv.URL+"/profiles/ghost/pull", nil, &e))
}

func TestPullWithoutTickets(t *testing.T) {
	srv, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, "POST", srv.URL+"/profiles", createProfileReq{ID: "ada"}, nil))
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/profiles/ada/pull?count=10", nil, nil))
	}
	var e errResp
	assert.Equal(t, http.StatusPaymentRequired, do(t, "POST", srv.URL+"/profiles/ada/pull", nil, &e))
	assert.Equal(t, service.CodeInsufficientTickets, e.Code)
}

func TestSimulate(t *testing.T) {
	srv, _ := newServer(t)

	var res service.SimulateResult
	require.Equal(t, http.StatusOK, do(t, "GET",
		srv.URL+"/gacha/simulate?trials=20&seed=3&rate_5star=1&rate_5star_first_time=1&rate_4star=0", nil, &res))
	assert.Equal(t, 20, res.Trials)
	assert.InDelta(t, 1.0, res.Stats.Mean, 1e-9)

	require.Equal(t, http.StatusOK, do(t, "GET",
		srv.URL+"/gacha/simulate?banner=aster&goal=fixed_budget&budget=50&trials=30&ten_pulls=true", nil, &res))
	assert.Equal(t, gacha.GoalFixedBudget, res.Goal)
	assert.Equal(t, 2, res.Rates.MaxSpooks)

	var e errResp
	assert.Equal(t, http.StatusNotFound, do(t, "GET", srv.URL+"/gacha/simulate?banner=nope", nil, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/gacha/simulate?rate_5star=abc", nil, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/gacha/simulate?seed=-1", nil, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/gacha/simulate?trials=10&rate_5star=3", nil, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/gacha/simulate?first_time=maybe", nil, &e))
}

func TestDeckAndBattleFlow(t *testing.T) {
	srv, store := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, "POST", srv.URL+"/profiles", createProfileReq{ID: "ada"}, nil))

	cards := []string{"5A01", "5A02", "5A03"}
	for i := 0; i < 20; i++ {
		cards = append(cards, []string{"4X02", "3X02"}[i%2])
	}
	deck := putDeckReq{Name: "Main", Cards: cards, Current: true}

	var e errResp
	assert.Equal(t, http.StatusForbidden, do(t, "PUT", srv.URL+"/profiles/ada/decks/main", deck, &e))
	assert.Equal(t, service.CodeNotOwned, e.Code)

	ctx := context.Background()
	p, err := store.Get(ctx, "ada")
	require.NoError(t, err)
	for _, c := range []string{"5A01", "5A02", "5A03", "4X02", "3X02"} {
		p.AddOwned(c)
	}
	require.NoError(t, store.Save(ctx, p))

	bad := deck
	bad.Cards = cards[:5]
	assert.Equal(t, http.StatusBadRequest, do(t, "PUT", srv.URL+"/profiles/ada/decks/main", bad, &e))

	var got profile.Profile
	require.Equal(t, http.StatusOK, do(t, "PUT", srv.URL+"/profiles/ada/decks/main", deck, &got))
	assert.Equal(t, "main", got.CurrentDeck)

	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/battles", service.StartRequest{}, &e))
	var v battle.View
	require.Equal(t, http.StatusCreated, do(t, "POST", srv.URL+"/battles",
		service.StartRequest{ProfileID: "ada", Qualification: 1, BotQualification: 9}, &v))
	assert.Equal(t, "ada", v.Current)
	require.NotEmpty(t, v.Players[0].Hand)

	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/battles/"+v.ID, nil, &v))
	assert.Equal(t, battle.StatePlayerTurn, v.State)

	var evs eventsResp
	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/battles/"+v.ID+"/events?since_turn=1", nil, &evs))
	assert.NotEmpty(t, evs.Events)

	hand := v.Players[0].Hand[0]
	assert.Equal(t, http.StatusConflict, do(t, "POST", srv.URL+"/battles/"+v.ID+"/play",
		playReq{PlayerID: "bot", Card: hand.InstanceID}, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/battles/"+v.ID+"/play",
		playReq{PlayerID: "ada"}, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/battles/"+v.ID+"/play",
		playReq{PlayerID: "ada", Card: "nope"}, &e))
	assert.Equal(t, service.CodeInvalidArgument, e.Code)

	var sk skipResp
	require.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/battles/"+v.ID+"/skip", skipReq{PlayerID: "ada"}, &sk))
	assert.GreaterOrEqual(t, sk.Battle.Turn, 2)
	assert.GreaterOrEqual(t, sk.Healed, 0)

	assert.Equal(t, http.StatusNotFound, do(t, "GET", srv.URL+"/battles/missing", nil, &e))
	assert.Equal(t, http.StatusNotFound, do(t, "POST", srv.URL+"/battles/missing/skip", skipReq{PlayerID: "ada"}, &e))
}

func TestUnknownFieldsRejected(t *testing.T) {
	srv, _ := newServer(t)
	var e errResp
	assert.Equal(t, http.StatusBadRequest, do(t, "POST", srv.URL+"/profiles", map[string]string{"nickname": "x"}, &e))
	assert.Equal(t, service.CodeInvalidArgument, e.Code)

	var h map[string]string
	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/healthz", nil, &h))
	assert.Equal(t, "ok", h["status"])
}

func TestShop(t *testing.T) {
	srv, _ := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, "POST", srv.URL+"/profiles", createProfileReq{ID: "ada"}, nil))

	var cat pricing.Catalog
	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/shop", nil, &cat))
	assert.Equal(t, "USD", cat.Currency)

	var q service.PullQuote
	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/profiles/ada/shop/quote?pulls=40", nil, &q))
	assert.Equal(t, 10, q.Missing)

	var plan pricing.Plan
	require.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/shop/budget?cents=1000", nil, &plan))
	assert.Equal(t, 25, plan.TotalTickets)

	var e errResp
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/shop/budget", nil, &e))
	assert.Equal(t, http.StatusBadRequest, do(t, "GET", srv.URL+"/profiles/ada/shop/quote?pulls=-1", nil, &e))
	assert.Equal(t, http.StatusNotFound, do(t, "GET", srv.URL+"/profiles/ghost/shop/quote?pulls=1", nil, &e))
}
