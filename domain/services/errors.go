package services

import "errors"

// Sentinel errors callers match on to tell expected lifecycle conditions
// apart from infrastructure failures.
var (
	ErrRoundNotFound     = errors.New("round not found")
	ErrRoundNotSelling   = errors.New("round is not selling")
	ErrRoundNotDrawing   = errors.New("round is not drawing")
	ErrRoundTerminal     = errors.New("round is already finished or cancelled")
	ErrAllNumbersDrawn   = errors.New("all numbers have been drawn")
	ErrCardNotFound      = errors.New("card not found")
	ErrCardNotInRound    = errors.New("card does not belong to an active round")
	ErrNoWinningPattern  = errors.New("card does not complete any active pattern")
	ErrWinnerAlreadySet  = errors.New("round already has a declared winner")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrPurchaseNotPaid   = errors.New("purchase is not in paid status")
	ErrRoundSoldOut      = errors.New("round card limit reached")
)
