package dummy

import (
	"github.com/cockroachdb/errors"
)

var ModelFailure = errors.New("dummy: model is unavailable")
