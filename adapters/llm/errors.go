package llm

import "errors"

// errEmptyReply is returned when a provider answers with no text.
var errEmptyReply = errors.New("empty reply from language model")
