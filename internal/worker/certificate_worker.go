package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/service"
)

const CertificatePollTimeout = 1 * time.Second

// CertificateWorker drains the issuance queue: result ids pushed when
// grading settles a passing final result. Issuance is idempotent, so a
// duplicate or replayed queue entry is harmless.
type CertificateWorker struct {
	certs *service.CertificateService
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewCertificateWorker(certs *service.CertificateService, rdb *redis.Client, log zerolog.Logger) *CertificateWorker {
	return &CertificateWorker{
		certs: certs,
		rdb:   rdb,
		log:   log.With().Str("component", "certificate_worker").Logger(),
	}
}

func (w *CertificateWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CertificateWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
			item, err := w.rdb.BLPop(ctx, CertificatePollTimeout, config.WorkerKey.IssueCertificatesQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}
			w.issue(ctx, item[1])
		}
	}
}

func (w *CertificateWorker) issue(ctx context.Context, rawResultID string) {
	resultID, err := uuid.Parse(rawResultID)
	if err != nil {
		w.log.Error().Str("payload", rawResultID).Msg("Invalid result id on queue")
		return
	}

	cert, err := w.certs.IssueIfEligible(ctx, resultID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFinal) {
			// A later grading event re-queues it; nothing to do now.
			return
		}
		w.log.Error().Err(err).Str("result_id", rawResultID).Msg("Issue failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.IssueCertificatesQueue, rawResultID)
		return
	}
	if cert != nil {
		w.log.Info().
			Str("result_id", rawResultID).
			Str("certificate_id", cert.ID).
			Msg("Certificate settled")
	}
}
