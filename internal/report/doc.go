// Package report renders batch results and file-list validations as
// plain text for the CLI.
package report
