//go:build !linux

package drivers

import (
	"context"

	"github.com/pkg/errors"
)

type cdevLines = map[uint16]struct{}

var errCdevUnsupported = errors.New("gpio character devices are only available on linux")

func (cd *CdevIO) Init(ctx context.Context) error {
	return errCdevUnsupported
}

func (cd *CdevIO) SetOutput(line uint16) error {
	return errCdevUnsupported
}

func (cd *CdevIO) WriteLine(line uint16, high bool) error {
	return errCdevUnsupported
}

func (cd *CdevIO) Close() error {
	return nil
}
