/*
DESCRIPTION
  errors.go defines the errors returned by the roi package.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import "errors"

// Errors returned by Region and Set operations. Geometry and capacity errors
// are returned before any state is changed.
var (
	ErrCapacityExceeded = errors.New("region capacity exceeded")
	ErrOutOfBounds      = errors.New("region outside frame bounds")
	ErrStreamExhausted  = errors.New("frame stream exhausted")
	ErrEmptySelection   = errors.New("no finished regions selected")
	ErrAlreadyFinished  = errors.New("region already finished")
	ErrNotRegistered    = errors.New("region has not been registered")
	ErrUnknownRegion    = errors.New("unknown region")
	ErrDimension        = errors.New("invalid region dimensions")
	ErrNoMask           = errors.New("region has no mask")
)
