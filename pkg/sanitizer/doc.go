// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and never fail: invalid input becomes an
// empty string or an empty slice, which validation then rejects.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Emails: trimmed and lowercased
//   - Clock values: "9:5" style input is left alone, " 09:00 " is trimmed
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
