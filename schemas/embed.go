// Package schemas embeds the JSON Schemas for the documents the scraper reads and writes.
package schemas

import _ "embed"

// NormalizerProfile is the schema for normalizer profile files (noise words and tokenization rules).
//
//go:embed normalizer_profile.schema.json
var NormalizerProfile string

// RunLog is the schema for the JSON run log written at the end of a run.
//
//go:embed run_log.schema.json
var RunLog string
