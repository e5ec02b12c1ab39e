package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic must be deferred directly. It logs a panic with its
// stack and hands the recovered value to onPanic (may be nil).
func RecoverFromPanic(onPanic func(r any)) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("Panic in handler recovered")
		if onPanic != nil {
			onPanic(r)
		}
	}
}
