package scheduler_jobs

import (
	"fmt"
	"log"
	"runtime/debug"

	"pickemEngine/services/settleService"

	"gorm.io/gorm"
)

// CheckUnsettledPicks is the secondary settlement timer's job: it re-scans
// for completed games that still owe picks a result and re-enters
// settlement for them. Every pass is idempotent, so finding nothing to do
// is the normal case.
func CheckUnsettledPicks(db *gorm.DB) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered in CheckUnsettledPicks", r)
			debug.PrintStack()
			err = fmt.Errorf("panic recovered in CheckUnsettledPicks: %v", r)
		}
	}()

	settled, err := settleService.SweepUnsettled(db)
	if err != nil {
		return err
	}
	if settled > 0 {
		log.Printf("[scheduler_jobs] settlement sweep finished work on %d game(s)", settled)
	}
	return nil
}
