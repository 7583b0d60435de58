// Package report writes the failed results of a campaign to a spreadsheet
// that can be fixed up and loaded again as campaign input.
//
// The format follows the file extension: .xlsx (sheet "Failed") or .csv.
// Columns are the input columns followed by error_message:
//
//	written, err := report.Write("failed_emails_report.xlsx", summary.Failures())
//
// No file is produced when there are no failures. Passwords are left blank
// unless WithCredentials is given.
package report
