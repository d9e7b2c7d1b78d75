package events

// DecodeError is published for each line dropped because it is not valid UTF-8.
// It is a diagnostic, the pump carries on with the next line.
type DecodeError struct {
	Base
	ChunkNumber int
	Err         error
}

func NewDecodeErrorEvent(executionId, listName string, chunkNumber int, err error) *DecodeError {
	return &DecodeError{
		Base:        Base{ExecutionId: executionId, ListName: listName},
		ChunkNumber: chunkNumber,
		Err:         err,
	}
}
