package cash

import (
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterConcrete(&Wallet{}, "cash/wallet", nil)
}
