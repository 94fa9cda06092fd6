package preprocessing

import "encoding/gob"

// Pipeline steps are stored behind the Transformer interface, so the
// concrete types must be registered for gob persistence.
func init() {
	gob.Register(&StandardScaler{})
	gob.Register(&MinMaxScaler{})
	gob.Register(&LabelEncoder{})
	gob.Register(&OneHotEncoder{})
}
