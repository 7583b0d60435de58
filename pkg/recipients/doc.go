// Package recipients loads a mail-merge spreadsheet into an ordered list of
// send jobs.
//
// The input is a tabular file (.xlsx, .xlsm or .csv) whose first non-empty row
// is a header. The following columns are required, in any order:
//
//	from_email, password, sal, signature, to_email, subject, html_file
//
// Header names are matched case-insensitively and surrounding whitespace is
// ignored. Extra columns are allowed and ignored. Every remaining non-empty
// row becomes one SendJob, in file order:
//
//	jobs, err := recipients.Load("/data/campaign.xlsx")
//	if err != nil {
//		var loadErr *recipients.LoadError
//		if errors.As(err, &loadErr) {
//			// fatal: nothing has been sent yet
//		}
//		return err
//	}
//
// The loader does not validate addresses and does not deduplicate rows;
// bad rows surface later as per-job send failures.
package recipients
