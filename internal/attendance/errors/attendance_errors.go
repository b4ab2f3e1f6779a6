package attendanceerrors

import (
	"net/http"

	"go-attend/internal/shared/apperror"
)

var (
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeInvalidState,
		"Already clocked in for today",
		http.StatusConflict,
	)
	ErrAlreadyClockedOut = apperror.New(
		apperror.CodeInvalidState,
		"Already clocked out for today",
		http.StatusConflict,
	)
	ErrNoClockInToday = apperror.New(
		apperror.CodeNotFound,
		"No clock in found for today",
		http.StatusNotFound,
	)
	ErrOnLeaveToday = apperror.New(
		apperror.CodeInvalidState,
		"Cannot clock in on an approved leave day",
		http.StatusConflict,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid year or month",
		http.StatusBadRequest,
	)
)
