package crypto

// IPayloadCodec turns a chat payload into what goes on the wire and back.
// topic is bound into sealed payloads so they cannot be replayed elsewhere.
type IPayloadCodec interface {
	Seal(topic string, plaintext []byte) ([]byte, error)

	Open(topic string, payload []byte) ([]byte, error)
}
