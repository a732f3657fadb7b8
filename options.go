package pledge

import (
	"encoding/json"

	"github.com/iov-one/pledge/errors"
)

// Options are the runtime configuration options.
// Each extension can look up its key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from configuration file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
