package apperr

import "net/http"

// Kind groups codes into the caller-facing error taxonomy.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindNotFound
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to the response status used by the API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Code is a stable machine-readable error code.
type Code string

const (
	CodeInternal Code = "INTERNAL"

	// Validation
	CodeMissingField         Code = "MISSING_FIELD"
	CodeWrongPhase           Code = "WRONG_PHASE"
	CodeGameAlreadyStarted   Code = "GAME_ALREADY_STARTED"
	CodeAlreadyStarted       Code = "ALREADY_STARTED"
	CodeNotEnoughPlayers     Code = "NOT_ENOUGH_PLAYERS"
	CodeNotAllReady          Code = "NOT_ALL_READY"
	CodeTooManySpecialRoles  Code = "TOO_MANY_SPECIAL_ROLES"
	CodeInvalidSettings      Code = "INVALID_SETTINGS"
	CodeVotesIncomplete      Code = "VOTES_INCOMPLETE"
	CodeStaleRound           Code = "STALE_ROUND"
	CodeInvalidVote          Code = "INVALID_VOTE"
	CodeGuessNotExpected     Code = "GUESS_NOT_EXPECTED"
	CodeGameNotFinished      Code = "GAME_NOT_FINISHED"
	CodeInvalidRequest       Code = "INVALID_REQUEST"

	// Conflict
	CodeDuplicateVote     Code = "DUPLICATE_VOTE"
	CodeDuplicateName     Code = "DUPLICATE_NAME"
	CodeAlreadyJoined     Code = "ALREADY_JOINED"
	CodeConcurrentUpdate  Code = "CONCURRENT_UPDATE"
	CodeRoomCodeExhausted Code = "ROOM_CODE_EXHAUSTED"

	// Authorization
	CodeNotHost        Code = "NOT_HOST"
	CodeNotMember      Code = "NOT_MEMBER"
	CodeNotPlayerOwner Code = "NOT_PLAYER_OWNER"

	// Not found
	CodeRoomNotFound   Code = "ROOM_NOT_FOUND"
	CodePlayerNotFound Code = "PLAYER_NOT_FOUND"
	CodeSecretNotFound Code = "SECRET_NOT_FOUND"

	// Unauthenticated
	CodeUnauthenticated Code = "UNAUTHENTICATED"
)

// Kind maps a code to its taxonomy kind.
func (c Code) Kind() Kind {
	switch c {
	case CodeMissingField,
		CodeWrongPhase,
		CodeGameAlreadyStarted,
		CodeAlreadyStarted,
		CodeNotEnoughPlayers,
		CodeNotAllReady,
		CodeTooManySpecialRoles,
		CodeInvalidSettings,
		CodeVotesIncomplete,
		CodeStaleRound,
		CodeInvalidVote,
		CodeGuessNotExpected,
		CodeGameNotFinished,
		CodeInvalidRequest:
		return KindValidation

	case CodeDuplicateVote,
		CodeDuplicateName,
		CodeAlreadyJoined,
		CodeConcurrentUpdate,
		CodeRoomCodeExhausted:
		return KindConflict

	case CodeNotHost,
		CodeNotMember,
		CodeNotPlayerOwner:
		return KindAuthorization

	case CodeRoomNotFound,
		CodePlayerNotFound,
		CodeSecretNotFound:
		return KindNotFound

	case CodeUnauthenticated:
		return KindUnauthenticated

	default:
		return KindInternal
	}
}
