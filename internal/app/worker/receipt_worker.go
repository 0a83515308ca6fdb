package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"
	"olimpiada_backend/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// ReceiptWorker drains the receipt queue and delivers an enrollment
// receipt to the configured notification endpoint. Delivery is best
// effort: a failed POST is logged, never retried forever.
type ReceiptWorker struct {
	rdb             *redis.Client
	enrollmentRepo  repository.EnrollmentRepository
	personRepo      repository.PersonRepository
	competitionRepo repository.CompetitionRepository
	httpClient      *http.Client
}

func NewReceiptWorker(rdb *redis.Client, enrollmentRepo repository.EnrollmentRepository, personRepo repository.PersonRepository, competitionRepo repository.CompetitionRepository) *ReceiptWorker {
	return &ReceiptWorker{
		rdb:             rdb,
		enrollmentRepo:  enrollmentRepo,
		personRepo:      personRepo,
		competitionRepo: competitionRepo,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

// ReceiptPayload is the document posted to the notification endpoint.
type ReceiptPayload struct {
	CodIns           string    `json:"codIns"`
	Competidor       string    `json:"competidor"`
	Competencia      string    `json:"competencia"`
	Estado           string    `json:"estado"`
	FechaInscripcion time.Time `json:"fechaInscripcion"`
}

func (w *ReceiptWorker) Start(ctx context.Context) {
	log.Println("Receipt worker started, listening to queue:", config.AppConfig.ReceiptQueueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Receipt worker stopping...")
			return
		default:
			item, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.ReceiptQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", config.AppConfig.ReceiptQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// item is an array: [queueName, value]
			if len(item) < 2 || item[1] == "" {
				log.Println("WARN: BRPop returned empty enrollment ID.")
				continue
			}
			enrollmentID := item[1]
			log.Printf("Worker picked up inscripcion ID: %s", enrollmentID)

			if err := w.deliverReceipt(ctx, enrollmentID); err != nil {
				log.Printf("ERROR: Failed to deliver receipt for inscripcion %s: %v", enrollmentID, err)
			}
		}
	}
}

func (w *ReceiptWorker) deliverReceipt(ctx context.Context, enrollmentID string) error {
	if config.AppConfig.ReceiptWebhookURL == "" {
		log.Printf("INFO: No receipt webhook configured, dropping receipt for inscripcion %s", enrollmentID)
		return nil
	}

	enrollment, err := w.enrollmentRepo.FindEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to fetch inscripcion %s: %w", enrollmentID, err)
	}
	competition, err := w.competitionRepo.FindByID(ctx, enrollment.CompetitionID)
	if err != nil {
		return fmt.Errorf("failed to fetch competencia %s: %w", enrollment.CompetitionID, err)
	}
	person, err := w.personForCompetitor(ctx, enrollment.CompetitorID)
	if err != nil {
		return err
	}

	payload := ReceiptPayload{
		CodIns:           enrollment.ID,
		Competidor:       fmt.Sprintf("%s %s", person.Nombre, person.ApellidoPaterno),
		Competencia:      competition.Nombre,
		Estado:           string(enrollment.Estado),
		FechaInscripcion: enrollment.FechaInscripcion,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.AppConfig.ReceiptWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build receipt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("receipt webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("receipt webhook returned status %d", resp.StatusCode)
	}
	log.Printf("INFO: Receipt delivered for inscripcion %s.", enrollmentID)
	return nil
}

func (w *ReceiptWorker) personForCompetitor(ctx context.Context, competitorID string) (*model.Person, error) {
	competitor, err := w.personRepo.FindCompetitorByID(ctx, competitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competidor %s: %w", competitorID, err)
	}
	person, err := w.personRepo.FindByID(ctx, competitor.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch persona %s: %w", competitor.PersonID, err)
	}
	return person, nil
}
