package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"historando-backend/internal/models"
	"historando-backend/internal/repository"
	"historando-backend/internal/services"
)

const qrQueue = "queue:poi-qrcode"

// Pool drains the QR rendering queue. Each POI created or rotated by an
// admin gets its scan code rendered here rather than on the request path.
type Pool struct {
	redis        *redis.Client
	qr           *services.QRCodeService
	notifier     *services.Notifier
	jobRepo      *repository.JobRepo
	parcoursRepo *repository.ParcoursRepo
	workerCount  int
	stopChan     chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	qr *services.QRCodeService,
	notifier *services.Notifier,
	jobRepo *repository.JobRepo,
	parcoursRepo *repository.ParcoursRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:        redisClient,
		qr:           qr,
		notifier:     notifier,
		jobRepo:      jobRepo,
		parcoursRepo: parcoursRepo,
		workerCount:  workerCount,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d QR worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, qrQueue).Result()
		if err != nil {
			continue // timeout, poll again
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Only one worker may run a given job.
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 5*time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)
		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "poi-qrcode":
			processErr = p.renderPOIQR(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
			log.Printf("Job %s completed", job.ID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) renderPOIQR(ctx context.Context, job *models.Job) error {
	poi, err := p.parcoursRepo.GetPOIByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to load POI: %w", err)
	}

	imageURL, err := p.qr.Generate(poi.ID, poi.QRToken)
	if err != nil {
		return err
	}

	if err := p.parcoursRepo.SetPOIQRImage(ctx, poi.ID, imageURL); err != nil {
		return fmt.Errorf("failed to store QR image URL: %w", err)
	}

	p.notifier.Publish(ctx, job.UserID, models.WSMessage{
		Type: "qr_ready",
		Payload: models.QRReadyEvent{
			JobID:      job.ID,
			POIID:      poi.ID,
			QRImageURL: imageURL,
		},
	})

	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < 3 {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), qrQueue, string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	p.notifier.Publish(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "JOB_FAILED",
			ErrorMessage: errMsg,
		},
	})
}
