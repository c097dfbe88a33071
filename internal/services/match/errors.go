package match

import (
	"fmt"
	"net/http"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
)

var (
	ErrMatchNotFound      = apperrors.NotFound("match")
	ErrRegistrationClosed = apperrors.NotJoinable("REGISTRATION_CLOSED", "registration closed")
	ErrMatchFull          = apperrors.NotJoinable("MATCH_FULL", "match full")
	ErrAccountBanned      = forbidden("ACCOUNT_BANNED", "account is banned")
	ErrNotJoined          = apperrors.BadRequest("NOT_JOINED", "not joined")
	ErrNotLeavable        = apperrors.BadRequest("MATCH_NOT_LEAVABLE", "match has already started or ended")
	ErrHasParticipants    = apperrors.BadRequest("MATCH_HAS_PARTICIPANTS", "cannot delete a match with participants")
	ErrRoomNotRevealed    = apperrors.BadRequest("ROOM_NOT_REVEALED", "room credentials must be revealed before start")
	ErrRoomHidden         = forbidden("ROOM_HIDDEN", "room credentials are not revealed yet")
	ErrNotParticipant     = forbidden("NOT_PARTICIPANT", "only joined players can view the room")
	ErrMatchCompleted     = apperrors.BadRequest("MATCH_COMPLETED", "a completed match cannot be cancelled")
)

func invalidTransition(from models.MatchStatus, action string) error {
	return apperrors.BadRequest("INVALID_MATCH_STATE", fmt.Sprintf("cannot %s a match in %s", action, from))
}

func forbidden(code, message string) *apperrors.DomainError {
	return &apperrors.DomainError{Kind: apperrors.KindForbidden, Code: code, Message: message, Status: http.StatusForbidden}
}
