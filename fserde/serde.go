// Package fserde provides serializer/deserializer pairs for stages that
// move values across byte-oriented boundaries, such as the Kafka and file
// helpers.
package fserde

// Serde bundles a Serializer and Deserializer for one type.
type Serde[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}

type Serializer[T any] func(T) ([]byte, error)

type Deserializer[T any] func([]byte) (T, error)

var StringSerializer = func(data string) ([]byte, error) {
	return []byte(data), nil
}

var StringDeserializer = func(data []byte) (string, error) {
	return string(data), nil
}

// String is a Serde for raw string payloads.
var String = Serde[string]{
	Serializer:   StringSerializer,
	Deserializer: StringDeserializer,
}

// Bytes is the identity Serde.
var Bytes = Serde[[]byte]{
	Serializer:   func(data []byte) ([]byte, error) { return data, nil },
	Deserializer: func(data []byte) ([]byte, error) { return data, nil },
}
