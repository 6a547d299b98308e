package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/pda-provisioner/pkg/solana"
	"github.com/code-payments/pda-provisioner/pkg/solana/system"
)

// RentSchedule provides the rent configuration charged by the ledger.
type RentSchedule interface {
	Rent(ctx context.Context) (system.Rent, error)
}

type staticRentSchedule struct {
	rent system.Rent
}

// NewStaticRentSchedule returns a RentSchedule that always yields rent.
func NewStaticRentSchedule(rent system.Rent) RentSchedule {
	return &staticRentSchedule{rent: rent}
}

func (s *staticRentSchedule) Rent(_ context.Context) (system.Rent, error) {
	return s.rent, nil
}

type rpcRentSchedule struct {
	log    *logrus.Entry
	conf   *conf
	client solana.Client

	mu        sync.Mutex
	cached    system.Rent
	fetchedAt time.Time
}

// NewRPCRentSchedule returns a RentSchedule that mirrors the Rent sysvar of a
// live cluster, refreshing it once the configured cache TTL elapses.
func NewRPCRentSchedule(client solana.Client, configProvider ConfigProvider) RentSchedule {
	return &rpcRentSchedule{
		log:    logrus.StandardLogger().WithField("type", "ledger/rent"),
		conf:   configProvider(),
		client: client,
	}
}

func (s *rpcRentSchedule) Rent(ctx context.Context) (system.Rent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.conf.rentCacheTTL.Get(ctx) {
		return s.cached, nil
	}

	info, err := s.client.GetAccountInfo(system.RentSysVar, solana.CommitmentFinalized)
	if err != nil {
		return system.Rent{}, errors.Wrap(err, "error getting rent sysvar")
	}

	var rent system.Rent
	if err := rent.Unmarshal(info.Data); err != nil {
		return system.Rent{}, errors.Wrap(err, "invalid rent sysvar")
	}

	s.log.WithFields(logrus.Fields{
		"lamports_per_byte_year": rent.LamportsPerByteYear,
		"exemption_threshold":    rent.ExemptionThreshold,
	}).Debug("refreshed rent sysvar")

	s.cached = rent
	s.fetchedAt = time.Now()
	return rent, nil
}
