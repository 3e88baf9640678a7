package parser

import "github.com/rotisserie/eris"

var (
	// ErrMissingSource is returned for messages without a sender address.
	ErrMissingSource = eris.New("unable to find source in message")

	// ErrUnsupportedSource is returned for channels without an extraction recipe.
	ErrUnsupportedSource = eris.New("source not yet supported")
)
