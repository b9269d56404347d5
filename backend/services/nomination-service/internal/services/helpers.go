package services

import (
	"errors"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// Clock returns the current time. Production wires time.Now.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// persistenceFailure logs the storage cause and returns the generic,
// retry-safe AppError. AppErrors pass through unchanged.
func persistenceFailure(op string, err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	fields := logrus.Fields{"op": op}
	var pErr *repositories.PersistenceError
	if errors.As(err, &pErr) {
		fields["kind"] = pErr.Kind
		if pErr.Constraint != "" {
			fields["constraint"] = pErr.Constraint
		}
	}
	utils.Logger.WithError(err).WithFields(fields).Error("Persistence failure")
	return utils.NewPersistenceError(err)
}
