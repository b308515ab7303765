// Package errs defines the Cognitive Kernel Core's error-kind taxonomy.
//
// Each sentinel's Error() string is itself the stable wire token named in
// spec section 7. Fallible operations return either the sentinel itself or
// the sentinel wrapped with extra context via %w, whose Error() string then
// starts with the token followed by ": " and the detail; errors.Is matches
// the sentinel in both cases.
package errs

import "errors"

// Input errors.
var (
	ErrMissingInput           = errors.New("missing_input")
	ErrMissingTokens           = errors.New("missing_tokens")
	ErrPositionsSizeMismatch   = errors.New("positions_size_mismatch")
	ErrMissingCandidates       = errors.New("missing_candidates")
	ErrTooManyCandidates       = errors.New("too_many_candidates")
	ErrMissingTargetToken      = errors.New("missing_target_token")
	ErrMissingIntent           = errors.New("missing_intent")
)

// Dimensional errors.
var (
	ErrDimMismatch             = errors.New("dim_mismatch")
	ErrTargetProtoDimMismatch  = errors.New("target_proto_dim_mismatch")
	ErrTargetVectorDimMismatch = errors.New("target_vector_dim_mismatch")
	ErrEmptyTargetProto        = errors.New("empty_target_proto")
	ErrMissingDim              = errors.New("missing_dim")
	ErrHdcDimLimitExceeded     = errors.New("hdc_dim_limit_exceeded")
)

// Pipeline errors.
var (
	ErrEncodeFailed           = errors.New("encode_failed")
	ErrCriticThresholdNotMet  = errors.New("critic_threshold_not_met")
	ErrFatigueThresholdReached = errors.New("fatigue_threshold_reached")
)

// Storage (HolographicFileSystem) errors.
var (
	ErrHFSNotInitialized        = errors.New("hfs_not_initialized")
	ErrHFSRootCreateFailed      = errors.New("hfs_root_create_failed")
	ErrHFSIndexMagicInvalid     = errors.New("hfs_index_magic_invalid")
	ErrHFSIndexVersionUnsupported = errors.New("hfs_index_version_unsupported")
	ErrHFSIndexTooLarge         = errors.New("hfs_index_too_large")
	ErrHFSIndexDuplicateID      = errors.New("hfs_index_duplicate_id")
	ErrHFSIndexEntryMissing     = errors.New("hfs_index_entry_missing")
	ErrHFSEntryIDMismatch       = errors.New("hfs_entry_id_mismatch")
	ErrHFSEntryReadFailed       = errors.New("hfs_entry_read_failed")
	ErrHFSWriteFailed           = errors.New("hfs_write_failed")
	ErrNotFound                 = errors.New("not_found")
)

// Registration/symbol errors (SymbolSpace), named in spec 4.2 but not listed
// among the section 7 tokens verbatim — kept consistent with that taxonomy's
// naming style since they propagate through the same (ok, error, errorToken) channel.
var (
	ErrDimConflict = errors.New("dim_conflict")
)
