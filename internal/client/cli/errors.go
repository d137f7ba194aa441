package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/common"
)

const timeLayout = "2006-01-02 15:04"

// describe turns an error into a line for the user.
func describe(err error) string {
	var notYet *common.NotYetError
	switch {
	case errors.As(err, &notYet):
		return fmt.Sprintf("this capsule is still sealed; it unlocks at %s (in %s)",
			notYet.UnlockAt.Local().Format(timeLayout), capsule.FormatRemaining(time.Until(notYet.UnlockAt)))
	case errors.Is(err, common.ErrNotYet):
		return "this capsule is still sealed"
	case errors.Is(err, common.ErrAuthenticationFailure):
		return "could not open the capsule: wrong passphrase or the capsule was altered"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrUnauthorized):
		return "not authorized, please login again"
	case errors.Is(err, client.ErrLocalDataNotAvailable):
		return "no offline data, login once while online"
	case errors.Is(err, common.ErrRateLimited):
		return "too many attempts, wait a minute"
	}
	return err.Error()
}
