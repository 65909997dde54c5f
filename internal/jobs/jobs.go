package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// StartScheduler starts the background job scheduler. The three recurring
// jobs (outbox sync, cache sweep, manifest check) must already be
// registered with the job manager.
func StartScheduler(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleJob(s, app, "outbox-sync", app.Config().Sync.Interval)
	scheduleJob(s, app, "cache-sweep", app.Config().Cache.SweepInterval)
	scheduleJob(s, app, "manifest-check", app.Config().Manifest.Interval)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleJob(s *gocron.Scheduler, app JobContext, jobID string, intervalMinutes int) {
	if intervalMinutes == 0 {
		log.Printf("Interval for job '%s' is 0, scheduled run is disabled.", jobID)
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobID, intervalMinutes)

	_, err := s.Every(intervalMinutes).Minutes().Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		err := app.JobManager().RunJob(jobID, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}
