package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	"github.com/xtding233/gacha-battle/internal/arena"
	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/profile"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		code Code
		http int
		grpc codes.Code
	}{
		{fmt.Errorf("%w: u1", profile.ErrNotFound), CodeNotFound, http.StatusNotFound, codes.NotFound},
		{arena.ErrNotFound, CodeNotFound, http.StatusNotFound, codes.NotFound},
		{profile.ErrExists, CodeAlreadyExists, http.StatusConflict, codes.AlreadyExists},
		{fmt.Errorf("%w: have 0, need 1", gacha.ErrInsufficientTickets), CodeInsufficientTickets, http.StatusPaymentRequired, codes.FailedPrecondition},
		{ErrRateLimited, CodeRateLimited, http.StatusTooManyRequests, codes.ResourceExhausted},
		{battle.ErrInsufficientHP, CodeIllegalMove, http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{battle.ErrNotPlayerTurn, CodeNotYourTurn, http.StatusConflict, codes.FailedPrecondition},
		{errors.Join(fmt.Errorf("%w: got 2", card.ErrPrimaryCount)), CodeInvalidArgument, http.StatusBadRequest, codes.InvalidArgument},
		{fmt.Errorf("%w: 5A01", ErrCardNotOwned), CodeNotOwned, http.StatusForbidden, codes.PermissionDenied},
		{arena.ErrFull, CodeUnavailable, http.StatusServiceUnavailable, codes.Unavailable},
		{errors.New("disk on fire"), CodeUnknown, http.StatusInternalServerError, codes.Internal},
	}
	for _, tc := range cases {
		c := CodeOf(tc.err)
		assert.Equal(t, tc.code, c, tc.err.Error())
		assert.Equal(t, tc.http, c.HTTPStatus(), tc.err.Error())
		assert.Equal(t, tc.grpc, c.GRPCCode(), tc.err.Error())
	}
}
