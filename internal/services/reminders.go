package services

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"historando-backend/internal/repository"
)

const (
	walkReminderInterval = 7 * 24 * time.Hour
	reminderPollInterval = 1 * time.Hour
)

// ReminderScheduler emails users whose last walk is older than a week.
// Last-sent markers live in Redis so restarts do not re-send.
type ReminderScheduler struct {
	userRepo *repository.UserRepo
	email    *EmailService
	redis    *redis.Client
	stopChan chan struct{}
}

func NewReminderScheduler(userRepo *repository.UserRepo, email *EmailService, redisClient *redis.Client) *ReminderScheduler {
	return &ReminderScheduler{
		userRepo: userRepo,
		email:    email,
		redis:    redisClient,
		stopChan: make(chan struct{}),
	}
}

func (s *ReminderScheduler) Start() {
	if s.userRepo == nil || s.email == nil {
		return
	}

	go s.loop()
	log.Printf("Walk reminder scheduler started")
}

func (s *ReminderScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *ReminderScheduler) loop() {
	// Run on startup as well as by interval.
	s.sendWalkReminders(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendWalkReminders(context.Background(), time.Now().UTC())
		}
	}
}

func (s *ReminderScheduler) sendWalkReminders(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListReminderRecipients(ctx)
	if err != nil {
		log.Printf("walk reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		lastSentRaw, _ := s.redis.Get(ctx, "walk_reminder_sent:"+recipient.ID.String()).Result()
		if !shouldSendByLastSent(lastSentRaw, walkReminderInterval, now) {
			continue
		}

		lastActivityAt, activityErr := s.userRepo.GetLatestActivityAt(ctx, recipient.ID)
		if activityErr != nil {
			log.Printf("walk reminders: failed to load latest activity for user %s: %v", recipient.ID, activityErr)
			continue
		}

		referenceTime := reminderReferenceTime(lastActivityAt, recipient.CreatedAt)
		if now.Sub(referenceTime) < walkReminderInterval {
			continue
		}

		if err := s.email.SendWalkReminderEmail(recipient.Email, recipient.FullName, lastActivityAt); err != nil {
			log.Printf("walk reminders: failed to send to %s: %v", recipient.Email, err)
			continue
		}

		s.redis.Set(ctx, "walk_reminder_sent:"+recipient.ID.String(), now.Format(time.RFC3339), 0)
	}
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}

func reminderReferenceTime(lastActivityAt *time.Time, createdAt time.Time) time.Time {
	if lastActivityAt != nil && !lastActivityAt.IsZero() {
		return lastActivityAt.UTC()
	}

	return createdAt.UTC()
}
