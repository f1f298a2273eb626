// Package core provides the extraction logic for the near-Earth object datasets.
//
// This package has no transport dependencies. It can be used by the web
// handlers, a CLI, or tests without modification.
//
// # Sources
//
// Two files are read, each by its own extractor:
//
//   - [BodyExtractor] reads the tabular NEO file (CSV with a header row) into
//     [BodyRecord] values. Columns are found by name, so order and extra
//     columns do not matter. Field problems never fail the file: a missing
//     name becomes [NoName], a missing or garbled diameter becomes
//     [UnknownDiameter], and a hazard token outside the truthy set is false.
//   - [EventExtractor] reads the structured close-approach file (a JSON object
//     with a "fields" header and a "data" array of positional rows) into
//     [EventRecord] values. Required columns are resolved to offsets once
//     from "fields". A missing column fails the whole file with a
//     [StructuralError]; a row whose distance or velocity is not numeric is
//     excluded and reported as a [RowError].
//
// [ExtractBodies] and [ExtractEvents] are the one-call forms with the default
// column mapping. The two collections are never linked to each other.
//
// # Service
//
// [Service.Load] runs both extractors concurrently and swaps in a new
// [Catalog] only when both succeed; a failed load keeps the previous one.
// [Service.StartReloadScheduler] repeats the load on an interval.
//
// # Error Handling
//
// Errors are typed so callers can branch with errors.Is and errors.As:
//
//   - [ErrFileAccess] / [FileError]: the file could not be opened or read
//   - [ErrStructural] / [StructuralError]: the structured layout is unusable
//   - [ErrRowInvalid] / [RowError]: one structured row was excluded
//
// [MapError] turns any of these into a user-facing message with a code.
package core
