package credit

import (
	"github.com/iov-one/pledge"
	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/gconf"
)

const pkgName = "credit"

// Configuration is the administrative state of the engine, kept as the
// gconf singleton of this package. Rate changes apply to newly listed
// loans only, existing contracts keep the rate stamped at listing time.
type Configuration struct {
	// Owner may change this configuration and collects transfer fees.
	Owner pledge.Address
	// InterestRate is the whole percent yearly rate stamped on every
	// newly listed loan.
	InterestRate uint32
	// TransferFee is charged to the counterparty on match and paid to
	// the owner. Zero disables the fee.
	TransferFee uint64
	// Enabled gates the listing of new contracts.
	Enabled bool
}

var _ gconf.Configuration = (*Configuration)(nil)

// Marshal encodes the configuration in binary.
func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal loads the configuration from its binary representation.
func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate ensures the configuration can be used by the engine.
func (c *Configuration) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if c.InterestRate > rateBase {
		return errors.Wrapf(errors.ErrInput, "interest rate above %d", rateBase)
	}
	return nil
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	return &conf, nil
}

// Initializer loads the genesis configuration of this package.
type Initializer struct{}

var _ pledge.Initializer = (*Initializer)(nil)

// FromGenesis initializes the configuration from genesis options.
func (*Initializer) FromGenesis(opts pledge.Options, db pledge.KVStore) error {
	return gconf.InitConfig(db, opts, pkgName, &Configuration{})
}

// Enable opens the engine for new listings. Only the configuration owner
// may call this.
func (c *CreditController) Enable(ctx pledge.Context, db pledge.KVStore) error {
	return c.updateConf(ctx, db, func(conf *Configuration) {
		conf.Enabled = true
	})
}

// Disable stops new listings. Contracts already listed keep their full
// lifecycle. Only the configuration owner may call this.
func (c *CreditController) Disable(ctx pledge.Context, db pledge.KVStore) error {
	return c.updateConf(ctx, db, func(conf *Configuration) {
		conf.Enabled = false
	})
}

// SetInterestRate changes the rate stamped on future loans. Only the
// configuration owner may call this.
func (c *CreditController) SetInterestRate(ctx pledge.Context, db pledge.KVStore, rate uint32) error {
	return c.updateConf(ctx, db, func(conf *Configuration) {
		conf.InterestRate = rate
	})
}

// SetTransferFee changes the fee collected on match. Only the
// configuration owner may call this.
func (c *CreditController) SetTransferFee(ctx pledge.Context, db pledge.KVStore, fee uint64) error {
	return c.updateConf(ctx, db, func(conf *Configuration) {
		conf.TransferFee = fee
	})
}

// TransferOwnership hands the administrative role to another address.
// Only the current configuration owner may call this.
func (c *CreditController) TransferOwnership(ctx pledge.Context, db pledge.KVStore, newOwner pledge.Address) error {
	if err := newOwner.Validate(); err != nil {
		return errors.Wrap(err, "new owner")
	}
	return c.updateConf(ctx, db, func(conf *Configuration) {
		conf.Owner = newOwner
	})
}

func (c *CreditController) updateConf(ctx pledge.Context, db pledge.KVStore, mutate func(*Configuration)) error {
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if !c.auth.HasAddress(ctx, conf.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "only the configuration owner")
	}
	mutate(conf)
	return gconf.Save(db, pkgName, conf)
}
