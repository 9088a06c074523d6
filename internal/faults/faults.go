// SPDX-License-Identifier: MIT

// Package faults defines the closed error taxonomy surfaced by the
// processing pipeline and the phrase-matching rules that map raw fault
// text from external tools onto it.
package faults

import (
	"errors"
	"fmt"
)

// Stage identifies which pipeline stage produced a classified failure.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTranscode Stage = "transcode"
	StagePublish   Stage = "publish"
	StagePipeline  Stage = "pipeline"
)

// Kind is one entry of the closed error taxonomy. Every failure that
// crosses a stage boundary carries exactly one Kind.
type Kind string

const (
	KindAccessRestricted      Kind = "access_restricted"
	KindVideoUnavailable      Kind = "video_unavailable"
	KindPremiereNotStarted    Kind = "premiere_not_started"
	KindFormatUnavailable     Kind = "format_unavailable"
	KindRateLimited           Kind = "rate_limited"
	KindForbidden             Kind = "forbidden"
	KindNoFilesDownloaded     Kind = "no_files_downloaded"
	KindOnlyMetadataAvailable Kind = "only_metadata_available"
	KindCorruptOrEmpty        Kind = "corrupt_or_empty"
	KindAllStrategiesFailed   Kind = "all_strategies_exhausted"

	KindNoValidStreams   Kind = "no_valid_streams"
	KindMissingEncoder   Kind = "missing_encoder"
	KindInputNotFound    Kind = "input_not_found"
	KindInputCorrupt     Kind = "input_corrupt"
	KindOutputNotCreated Kind = "output_not_created"
	KindOutputCorrupt    Kind = "output_corrupt"
	KindDiskFull         Kind = "disk_full"
	KindPermissionDenied Kind = "permission_denied"
	KindUnsupportedCodec Kind = "unsupported_codec"
	KindConversionFailed Kind = "conversion_failed"
	KindEncodeTimeout    Kind = "encode_timeout"

	KindTooLarge           Kind = "too_large"
	KindPublishAuth        Kind = "publish_auth_failure"
	KindPublishCredentials Kind = "publish_invalid_credentials"
	KindPublishQuota       Kind = "publish_quota_exceeded"
	KindPublishTimeout     Kind = "publish_timeout"
	KindPublishTooLarge    Kind = "publish_file_too_large"
	KindPublishFailed      Kind = "publish_failed"

	KindUnexpected Kind = "unexpected"
)

// maxDetail bounds how much verbatim tool output is preserved on an
// unmatched fault.
const maxDetail = 200

// Error is a classified failure: one taxonomy kind, the stage that
// raised it, and the (possibly truncated) underlying detail.
type Error struct {
	Kind   Kind
	Stage  Stage
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Detail)
}

// New builds a classified error, truncating the detail to keep log and
// result payloads bounded.
func New(stage Stage, kind Kind, detail string) *Error {
	return &Error{Kind: kind, Stage: stage, Detail: Truncate(detail)}
}

// Newf is New with a formatted detail string.
func Newf(stage Stage, kind Kind, format string, args ...any) *Error {
	return New(stage, kind, fmt.Sprintf(format, args...))
}

// Truncate caps a detail string at the taxonomy's preservation limit.
func Truncate(s string) string {
	if len(s) > maxDetail {
		return s[:maxDetail]
	}
	return s
}

// KindOf returns the taxonomy kind for err, or KindUnexpected for any
// error that does not carry a classified *Error in its chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}

// AsError returns the classified error in err's chain, wrapping
// unclassified errors as Unexpected for the given stage.
func AsError(err error, stage Stage) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return New(stage, KindUnexpected, err.Error())
}

// Hint maps a stage to the remediation category surfaced to callers.
func Hint(stage Stage, kind Kind) string {
	switch kind {
	case KindAccessRestricted:
		return "check credential material (cookies file)"
	case KindMissingEncoder:
		return "install ffmpeg with libx265 support"
	case KindDiskFull:
		return "free disk space on the host"
	case KindPublishAuth, KindPublishCredentials:
		return "verify store credentials"
	case KindPublishQuota:
		return "store quota exceeded; increase plan or retry later"
	case KindRateLimited:
		return "remote source rate limit; retry later"
	}
	switch stage {
	case StageExtract:
		return "extraction failed; the source may be restricted or removed"
	case StageTranscode:
		return "transcode failed; check encoder installation and input media"
	case StagePublish:
		return "publish failed; check store configuration"
	default:
		return "inspect service logs"
	}
}
