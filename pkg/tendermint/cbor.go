package tendermint

import "github.com/fxamacker/cbor/v2"

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

func cborMarshal(v interface{}) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func cborUnmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
