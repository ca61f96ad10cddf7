package encoding

// Serializable provides a clean, simple interface for serializing and deserializing values.
type Serializable interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// TextAppender renders a value into a caller-owned buffer, so hot paths can
// reuse pooled buffers instead of allocating in Serialize.
type TextAppender interface {
	AppendText(dst []byte) []byte
}
