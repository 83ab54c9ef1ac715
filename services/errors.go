package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	ErrCompetitionNotFound = errors.New("competition not found")
	ErrDrawNotFound        = errors.New("draw not found")
	ErrTeamNotInDraw       = errors.New("team is not part of this draw")

	// ErrDrawInProgress is returned while another draw of the same
	// competition holds the lock.
	ErrDrawInProgress = errors.New("a draw for this competition is already running")

	ErrInvalidCredentials = errors.New("invalid password")
)
