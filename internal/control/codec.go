// Package control translates viewer input into device key and touch commands.
package control

import "github.com/fxamacker/cbor/v2"

// encMode uses core deterministic encoding so equal messages encode to equal bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("control: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("control: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeCBOR encodes a message for the binary input channel.
func EncodeCBOR(m Message) ([]byte, error) {
	return encMode.Marshal(m)
}

// DecodeCBOR decodes a message from the binary input channel.
func DecodeCBOR(data []byte) (Message, error) {
	var m Message
	err := decMode.Unmarshal(data, &m)
	return m, err
}
