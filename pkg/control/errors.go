package control

import (
	"errors"

	"github.com/latticeworks/devicert/pkg/provider"
)

func asStatusError(err error) (*provider.StatusError, bool) {
	var se *provider.StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func isTimeout(err error) bool {
	return errors.Is(err, provider.ErrExchangeTimeout)
}
