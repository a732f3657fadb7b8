package assets

import (
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterConcrete(&Token{}, "assets/token", nil)
}
