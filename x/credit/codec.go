package credit

import (
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterConcrete(&Contract{}, "credit/contract", nil)
	cdc.RegisterConcrete(&Configuration{}, "credit/configuration", nil)
}
