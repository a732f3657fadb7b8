package orm

import (
	amino "github.com/tendermint/go-amino"
)

// cdc is the codec used for binary serialization of all models that
// this package owns.
var cdc = amino.NewCodec()

func init() {
	cdc.RegisterConcrete(&MultiRef{}, "orm/multiref", nil)
	cdc.RegisterConcrete(&Counter{}, "orm/counter", nil)
}
