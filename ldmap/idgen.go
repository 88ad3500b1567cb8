package ldmap

import "github.com/google/uuid"

// BlankNodeGenerator returns an id generation strategy producing random
// "_:"-prefixed blank node identifiers.
func BlankNodeGenerator() IDGenerator {
	return IDGeneratorFunc(func(interface{}) string {
		return "_:" + uuid.NewString()
	})
}

// UUIDGenerator returns an id generation strategy producing identifiers of
// the form base + random UUID. The base must end with a separator such as
// "/" or "#".
func UUIDGenerator(base string) IDGenerator {
	return IDGeneratorFunc(func(interface{}) string {
		return base + uuid.NewString()
	})
}
