//go:build !unix

package fdset

import (
	"errors"
	"time"
)

func Wait(timeout time.Duration, descs ...Desc) ([]bool, error) {
	if len(descs) == 0 {
		return nil, ErrNoDescriptors
	}
	return nil, errors.ErrUnsupported
}
