package pledge

// Marshaller is anything that can be represented in binary.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent objects can be serialized to and deserialized from a binary
// representation. Unmarshal must work on the zero value of the type.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}
