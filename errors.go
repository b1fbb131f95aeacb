package hawk

import (
	"errors"
	"fmt"
	"time"
)

// Verification outcome errors. Each maps to one Outcome variant; match
// with errors.Is or collapse with OutcomeOf.
var (
	// ErrMalformedHeader is returned when an Authorization header,
	// Server-Authorization header or bewit token cannot be parsed, or
	// when a mandatory attribute is missing. The wrapped message names
	// the offending field.
	ErrMalformedHeader = errors.New("hawk: malformed header")

	// ErrUnknownCredential is returned when the credentials lookup has
	// no record for the presented key ID.
	ErrUnknownCredential = errors.New("hawk: unknown credential")

	// ErrInvalidMAC is returned when the recomputed MAC does not match
	// the presented one, or when the artifact declares an algorithm the
	// credential does not use.
	ErrInvalidMAC = errors.New("hawk: invalid mac")

	// ErrInvalidPayloadHash is returned when the payload hash does not
	// match the request or response body, or when a required hash
	// attribute is absent.
	ErrInvalidPayloadHash = errors.New("hawk: payload hash mismatch")

	// ErrStaleTimestamp is returned when the request timestamp falls
	// outside the allowed clock-skew window. The concrete error is a
	// *StaleTimestampError carrying the server clock for correction.
	ErrStaleTimestamp = errors.New("hawk: stale timestamp")

	// ErrNonceReplay is returned when the nonce store has already seen
	// the (key ID, nonce, timestamp) combination.
	ErrNonceReplay = errors.New("hawk: nonce already used")

	// ErrStoreUnavailable is returned when a credentials lookup or nonce
	// store callback fails for a reason other than a protocol violation.
	// It is transient: callers should retry with backoff.
	ErrStoreUnavailable = errors.New("hawk: external store unavailable")

	// ErrBewitExpired is returned when the current time is past a
	// bewit's absolute expiry. Expired bewits are permanently invalid.
	ErrBewitExpired = errors.New("hawk: bewit expired")
)

// Configuration errors.
var (
	// ErrNoCredentials is returned when ServerConfig has no credentials
	// lookup configured.
	ErrNoCredentials = errors.New("hawk: credentials lookup must not be nil")

	// ErrInvalidCredential is returned when a credential has an empty
	// key or is otherwise unusable.
	ErrInvalidCredential = errors.New("hawk: invalid credential")

	// ErrUnsupportedAlgorithm is returned when a credential names an
	// algorithm outside the supported set.
	ErrUnsupportedAlgorithm = errors.New("hawk: unsupported algorithm")
)

// Outcome classifies a verification result for exhaustive handling, for
// example when mapping to HTTP status codes.
type Outcome int

const (
	// OutcomeValid indicates successful verification (a nil error).
	OutcomeValid Outcome = iota

	// OutcomeMalformedHeader indicates an unparseable or incomplete
	// header or bewit. Not retryable as-is.
	OutcomeMalformedHeader

	// OutcomeUnknownCredential indicates the key ID is not registered.
	OutcomeUnknownCredential

	// OutcomeInvalidMAC indicates tampering or a wrong secret.
	OutcomeInvalidMAC

	// OutcomeInvalidPayload indicates a payload hash mismatch.
	OutcomeInvalidPayload

	// OutcomeStaleTimestamp indicates the request fell outside the
	// clock-skew window. Retryable after correcting the client clock.
	OutcomeStaleTimestamp

	// OutcomeNonceReplay indicates the nonce was already used.
	OutcomeNonceReplay

	// OutcomeBewitExpired indicates the bewit's expiry has passed.
	OutcomeBewitExpired

	// OutcomeStoreUnavailable indicates a transient external store
	// failure, not a protocol failure.
	OutcomeStoreUnavailable

	// OutcomeInternal indicates a failure unrelated to the protocol,
	// such as invalid local configuration.
	OutcomeInternal
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeMalformedHeader:
		return "malformed header"
	case OutcomeUnknownCredential:
		return "unknown credential"
	case OutcomeInvalidMAC:
		return "invalid mac"
	case OutcomeInvalidPayload:
		return "invalid payload hash"
	case OutcomeStaleTimestamp:
		return "stale timestamp"
	case OutcomeNonceReplay:
		return "nonce replay"
	case OutcomeBewitExpired:
		return "bewit expired"
	case OutcomeStoreUnavailable:
		return "store unavailable"
	default:
		return "internal error"
	}
}

// OutcomeOf collapses an error returned by this package into its Outcome
// variant. A nil error is OutcomeValid.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeValid
	case errors.Is(err, ErrMalformedHeader):
		return OutcomeMalformedHeader
	case errors.Is(err, ErrUnknownCredential):
		return OutcomeUnknownCredential
	case errors.Is(err, ErrStaleTimestamp):
		return OutcomeStaleTimestamp
	case errors.Is(err, ErrNonceReplay):
		return OutcomeNonceReplay
	case errors.Is(err, ErrInvalidPayloadHash):
		return OutcomeInvalidPayload
	case errors.Is(err, ErrBewitExpired):
		return OutcomeBewitExpired
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeStoreUnavailable
	case errors.Is(err, ErrInvalidMAC):
		return OutcomeInvalidMAC
	default:
		return OutcomeInternal
	}
}

// StaleTimestampError reports a request timestamp outside the allowed
// skew window. It carries the server clock so the caller can surface
// corrective timing information (conventionally in a WWW-Authenticate
// header) and the client can retry with an adjusted offset.
type StaleTimestampError struct {
	// Delta is the observed skew: server now minus request timestamp.
	// Negative when the client clock runs ahead of the server.
	Delta time.Duration

	// ServerNow is the server clock at validation time.
	ServerNow time.Time

	// TimestampMAC authenticates ServerNow with the credential's key so
	// the client can trust the correction. Empty when the server policy
	// suppresses timestamp feedback or the credential is unknown.
	TimestampMAC string
}

func (e *StaleTimestampError) Error() string {
	return fmt.Sprintf("hawk: stale timestamp: skew %s exceeds allowed window", e.Delta)
}

// Unwrap makes the error match ErrStaleTimestamp under errors.Is.
func (e *StaleTimestampError) Unwrap() error { return ErrStaleTimestamp }
