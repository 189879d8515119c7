package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/models"
	"github.com/pavanbirlangi/library-management-system/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// OverdueSweepService keeps fines in step with overdue loans.
// A scheduled sweep creates a PENDING fine for every overdue loan that
// has none and refreshes the amounts of existing pending fines, so a
// member's balance grows daily without waiting for the return desk.
type OverdueSweepService struct {
	db       *gorm.DB
	schedule string
	cron     *cron.Cron
}

// NewOverdueSweepService creates a new overdue sweep service
func NewOverdueSweepService(db *gorm.DB, schedule string) *OverdueSweepService {
	return &OverdueSweepService{
		db:       db,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start schedules the daily sweep
func (s *OverdueSweepService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Printf("⚠️ Overdue fine sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Overdue fine sweep scheduled [%s]", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *OverdueSweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one pass over all overdue active loans.
// Each loan is handled in its own transaction so one bad row cannot
// poison the rest of the sweep.
func (s *OverdueSweepService) Sweep(ctx context.Context) error {
	now := time.Now()
	loanRepo := repositories.NewLoanRepository(s.db)

	loans, _, err := loanRepo.ListOverdue(ctx, now, 0, -1)
	if err != nil {
		return err
	}

	var created, updated int
	for _, loan := range loans {
		days, amount := CalculateFine(loan.DueAt, now)
		if days == 0 {
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			fineRepo := repositories.NewFineRepository(tx)

			fine, err := fineRepo.GetPendingByLoan(ctx, loan.ID)
			if err == nil {
				if fine.Amount == amount {
					return nil
				}
				fine.Amount = amount
				fine.CalculatedAt = now
				updated++
				return fineRepo.Update(ctx, fine)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			created++
			return fineRepo.Create(ctx, &models.Fine{
				LoanID:       loan.ID,
				MemberID:     loan.MemberID,
				Amount:       amount,
				Status:       models.FineStatusPending,
				CalculatedAt: now,
			})
		})
		if err != nil {
			log.Printf("⚠️ Fine sweep skipped loan_id=%d: %v", loan.ID, err)
		}
	}

	log.Printf("🧹 Overdue fine sweep done: %d loans overdue, %d fines created, %d updated",
		len(loans), created, updated)
	return nil
}
