// SPDX-License-Identifier: MIT

package faults

import "strings"

// rule maps a group of case-insensitive substrings to one taxonomy
// kind. Rules are evaluated in slice order; the first group with any
// matching phrase wins.
type rule struct {
	kind    Kind
	phrases []string
}

func match(stage Stage, rules []rule, msg string) *Error {
	lower := strings.ToLower(msg)
	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(lower, p) {
				return New(stage, r.kind, msg)
			}
		}
	}
	return New(stage, KindUnexpected, msg)
}

// resolveRules classifies faults raised during metadata resolution
// (no content transfer yet).
var resolveRules = []rule{
	{KindAccessRestricted, []string{
		"sign in to confirm", "not a bot", "captcha", "blocked",
		"restricted", "members-only", "join this channel",
		"age-restricted", "precondition check failed",
	}},
	{KindVideoUnavailable, []string{
		"video unavailable", "private video", "has been removed",
		"does not exist", "deleted",
	}},
	{KindPremiereNotStarted, []string{"premieres in", "premiere"}},
	{KindFormatUnavailable, []string{
		"format not available", "requested format is not available",
		"no video formats found",
	}},
}

// downloadRules classifies faults raised during content transfer.
// Rate-limit and forbidden signals only appear here.
var downloadRules = []rule{
	{KindFormatUnavailable, []string{
		"format not available", "requested format is not available",
		"no video formats found",
	}},
	{KindAccessRestricted, []string{
		"sign in to confirm", "not a bot", "captcha",
		"precondition check failed",
	}},
	{KindVideoUnavailable, []string{
		"blocked", "restricted", "unavailable", "geo",
		"not available in your country", "copyright",
	}},
	{KindRateLimited, []string{"http error 429", "too many requests"}},
	{KindForbidden, []string{"http error 403", "forbidden"}},
}

// encodeRules classifies a non-zero encoder exit by its diagnostic
// text. Order matters: the generic conversion-failure group must stay
// last among the phrase groups.
var encodeRules = []rule{
	{KindMissingEncoder, []string{
		"unknown encoder 'libx265'", "libx265 not found",
		"encoder not found",
	}},
	{KindInputNotFound, []string{"no such file or directory"}},
	{KindInputCorrupt, []string{"invalid data found", "moov atom not found"}},
	{KindDiskFull, []string{"no space left"}},
	{KindPermissionDenied, []string{"permission denied"}},
	{KindUnsupportedCodec, []string{"codec not currently supported"}},
	{KindConversionFailed, []string{"conversion failed", "error while decoding"}},
}

// publishRules classifies terminal faults from the remote store client.
var publishRules = []rule{
	{KindPublishTimeout, []string{"timeout", "timed out"}},
	{KindPublishAuth, []string{"unauthorized", "authentication failed"}},
	{KindPublishCredentials, []string{"invalid credentials", "invalid api key", "invalid signature"}},
	{KindPublishQuota, []string{"quota"}},
	{KindPublishTooLarge, []string{"file size too large", "file size"}},
}

// ClassifyResolve maps a metadata-resolution fault message onto the taxonomy.
func ClassifyResolve(msg string) *Error {
	return match(StageExtract, resolveRules, msg)
}

// ClassifyDownload maps a content-transfer fault message onto the taxonomy.
func ClassifyDownload(msg string) *Error {
	return match(StageExtract, downloadRules, msg)
}

// ClassifyEncode maps encoder diagnostic text for a non-zero exit onto
// the taxonomy. Unmatched diagnostics stay Unexpected with the original
// text preserved (truncated) verbatim.
func ClassifyEncode(msg string) *Error {
	return match(StageTranscode, encodeRules, msg)
}

// ClassifyPublish maps a store fault message onto the taxonomy, falling
// back to a generic publish failure instead of Unexpected so the caller
// always receives a publish-scoped kind.
func ClassifyPublish(msg string) *Error {
	ce := match(StagePublish, publishRules, msg)
	if ce.Kind == KindUnexpected {
		return New(StagePublish, KindPublishFailed, msg)
	}
	return ce
}
