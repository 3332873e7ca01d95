package segment

import "errors"

// ErrEmptyDocument indicates the extracted text is empty or too short to analyze.
var ErrEmptyDocument = errors.New("document is empty or too short to analyze")
