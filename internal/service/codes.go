package service

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/xtding233/gacha-battle/internal/arena"
	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/profile"
)

// Code is a machine-readable error class shared by both transports.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeNotOwned            Code = "CARD_NOT_OWNED"
	CodeInsufficientTickets Code = "INSUFFICIENT_TICKETS"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeNotYourTurn         Code = "NOT_YOUR_TURN"
	CodeIllegalMove         Code = "ILLEGAL_MOVE"
	CodeUnavailable         Code = "UNAVAILABLE"
	CodeCanceled            Code = "CANCELED"
)

var codeTable = []struct {
	err  error
	code Code
}{
	{profile.ErrNotFound, CodeNotFound},
	{arena.ErrNotFound, CodeNotFound},
	{gamedata.ErrUnknownBanner, CodeNotFound},
	{ErrNoDeck, CodeNotFound},
	{profile.ErrExists, CodeAlreadyExists},
	{ErrCardNotOwned, CodeNotOwned},
	{gacha.ErrInsufficientTickets, CodeInsufficientTickets},
	{ErrRateLimited, CodeRateLimited},
	{ErrNotYourTurn, CodeNotYourTurn},
	{battle.ErrNotPlayerTurn, CodeNotYourTurn},
	{battle.ErrInsufficientHP, CodeIllegalMove},
	{battle.ErrPrimaryNotPlayable, CodeIllegalMove},
	{battle.ErrInvalidTarget, CodeIllegalMove},
	{battle.ErrCardNotInHand, CodeIllegalMove},
	{arena.ErrFull, CodeUnavailable},
	{ErrInvalidCount, CodeInvalidArgument},
	{ErrInvalidInput, CodeInvalidArgument},
	{ErrUnknownUnit, CodeInvalidArgument},
	{card.ErrNotFound, CodeInvalidArgument},
	{card.ErrPrimaryCount, CodeInvalidArgument},
	{card.ErrSupportCount, CodeInvalidArgument},
	{card.ErrDuplicatePrimary, CodeInvalidArgument},
	{card.ErrDeckFull, CodeInvalidArgument},
	{context.Canceled, CodeCanceled},
	{context.DeadlineExceeded, CodeCanceled},
}

// CodeOf classifies err. The first matching sentinel wins.
func CodeOf(err error) Code {
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeUnknown
}

// GRPCCode maps c to a gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodeNotOwned:
		return codes.PermissionDenied
	case CodeInsufficientTickets, CodeNotYourTurn, CodeIllegalMove:
		return codes.FailedPrecondition
	case CodeRateLimited:
		return codes.ResourceExhausted
	case CodeUnavailable:
		return codes.Unavailable
	case CodeCanceled:
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// HTTPStatus maps c to an HTTP status code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeNotYourTurn:
		return http.StatusConflict
	case CodeNotOwned:
		return http.StatusForbidden
	case CodeInsufficientTickets:
		return http.StatusPaymentRequired
	case CodeIllegalMove:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
