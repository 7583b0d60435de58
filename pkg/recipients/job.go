package recipients

// Column names expected in the input header.
const (
	ColFromEmail = "from_email"
	ColPassword  = "password"
	ColSal       = "sal"
	ColSignature = "signature"
	ColToEmail   = "to_email"
	ColSubject   = "subject"
	ColHTMLFile  = "html_file"
)

// Columns lists the required columns in canonical order.
// The failure report writes them in the same order.
var Columns = []string{
	ColFromEmail,
	ColPassword,
	ColSal,
	ColSignature,
	ColToEmail,
	ColSubject,
	ColHTMLFile,
}

// SendJob is one spreadsheet row describing a single email.
// Row is the 1-based position among data rows and is the job's identity.
type SendJob struct {
	FromEmail  string
	Password   string
	Salutation string
	Signature  string
	ToEmail    string
	Subject    string
	HTMLFile   string
	Row        int
}

// Values returns the job fields in Columns order.
func (j SendJob) Values() []string {
	return []string{
		j.FromEmail,
		j.Password,
		j.Salutation,
		j.Signature,
		j.ToEmail,
		j.Subject,
		j.HTMLFile,
	}
}
