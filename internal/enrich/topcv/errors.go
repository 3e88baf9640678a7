package topcv

import "github.com/rotisserie/eris"

// ErrStructure marks failures caused by the message or page not having the
// expected shape, as opposed to transport errors.
var ErrStructure = eris.New("topcv: unexpected structure")

var (
	ErrNoTrackingURL = eris.Wrap(ErrStructure, "no tracking url in raw message")
	ErrTableNotFound = eris.Wrap(ErrStructure, "applicant table not found")
	ErrTooFewLines   = eris.Wrap(ErrStructure, "applicant table has too few lines")
)
