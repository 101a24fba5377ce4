package collector

import (
	"math/rand"
	"time"

	"igunfollow/pkg/config"
	"igunfollow/pkg/driver"
	"igunfollow/pkg/errors"
	"igunfollow/pkg/logger"
	"igunfollow/pkg/models"
)

// Collector enumerates a virtualized list into a complete, deduplicated
// snapshot. The list reveals a small window at a time and never says when it
// is done, so termination relies on the stall-and-confirm heuristic: after
// StallThreshold passes with no new entities, one extra reveal after a
// longer wait must also come back empty before the list counts as exhausted.
type Collector struct {
	source driver.ListSource
	probe  driver.BlockProbe
	cfg    config.CollectorConfig
	logger logger.Logger

	// Sleep and Backoff are injectable so tests never wait for real.
	Sleep func(time.Duration)
	// Backoff runs the long pause after a block phrase shows up
	// mid-collection. New defaults it to a randomized multi-minute sleep;
	// callers with a configured backoff range replace it.
	Backoff func(phrase string)
	rand    *rand.Rand
}

// Pause range after a block warning, used when the caller does not replace
// Backoff with its own configured range.
const (
	defaultBackoffMin = 10 * time.Minute
	defaultBackoffMax = 20 * time.Minute
)

// New creates a collector over one list source. probe may be nil when the
// session has no block-signal surface.
func New(source driver.ListSource, probe driver.BlockProbe, cfg config.CollectorConfig) *Collector {
	c := &Collector{
		source: source,
		probe:  probe,
		cfg:    cfg,
		logger: logger.GetLogger(),
		Sleep:  time.Sleep,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.Backoff = func(phrase string) {
		wait := defaultBackoffMin + time.Duration(c.rand.Int63n(int64(defaultBackoffMax-defaultBackoffMin)))
		logger.LogBlockSignal(phrase, wait.Minutes())
		c.Sleep(wait)
	}
	return c
}

// Collect drives the source until the list is exhausted or the retry
// ceiling is hit. On a ceiling hit it returns the partial snapshot together
// with a CollectionIncomplete error; callers decide whether partial data is
// acceptable for their side of the reconciliation.
func (c *Collector) Collect(source models.SnapshotSource, detector *driver.Detector) (*models.Snapshot, error) {
	log := c.logger.WithField("source", string(source))

	seen := make(map[string]bool)
	var accounts []models.Account
	collectedAt := time.Now()

	merge := func(refs []driver.EntityRef) int {
		added := 0
		for _, ref := range refs {
			if ref.ID == "" || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			accounts = append(accounts, models.Account{
				ID:          ref.ID,
				Username:    ref.Username,
				Metadata:    ref.Metadata,
				CollectedAt: collectedAt,
			})
			added++
		}
		return added
	}

	// Seed with whatever the initial window already shows.
	if visible, err := c.source.CurrentlyVisible(); err == nil {
		merge(visible)
	}

	reported, hasTotal := c.source.ReportedTotal()
	if hasTotal {
		log.WithField("reported_total", reported).Info("Collection started")
	} else {
		log.Info("Collection started, no reported total")
	}

	stallCount := 0
	for round := 0; round < c.cfg.MaxRounds; round++ {
		refs, err := c.source.RevealNextPage()
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeTransient, "reveal failed", err)
		}

		added := merge(refs)
		if added == 0 {
			stallCount++
		} else {
			stallCount = 0
			logger.LogCollectProgress(string(source), len(seen), reported)
		}

		// An authoritative total lets us stop without the heuristic.
		if hasTotal && len(seen) >= reported {
			log.WithField("seen", len(seen)).Info("Reached reported total")
			return c.snapshot(source, collectedAt, accounts, false), nil
		}

		if stallCount >= c.cfg.StallThreshold {
			// The feed can legitimately pause rendering mid-batch, so one
			// stall streak is not proof of exhaustion. Confirm with a
			// single reveal after a longer wait.
			c.Sleep(c.cfg.ConfirmDelay)
			refs, err := c.source.RevealNextPage()
			if err != nil {
				return nil, errors.Wrap(errors.ErrorTypeTransient, "confirmation reveal failed", err)
			}
			if merge(refs) == 0 {
				partial := hasTotal && len(seen) < int(float64(reported)*c.cfg.CountThreshold)
				if partial {
					log.WithFields(map[string]interface{}{
						"seen":           len(seen),
						"reported_total": reported,
					}).Warn("List confirmed stalled below reported total")
				} else {
					log.WithField("seen", len(seen)).Info("List exhausted")
				}
				return c.snapshot(source, collectedAt, accounts, partial), nil
			}
			stallCount = 0
			continue
		}

		c.pauseOnBlockSignal(detector, log)
		c.Sleep(c.scrollDelay())
	}

	// Ceiling hit without the confirm pass ever coming back clean.
	log.WithFields(map[string]interface{}{
		"seen":   len(seen),
		"rounds": c.cfg.MaxRounds,
	}).Warn("Collection hit retry ceiling")
	return c.snapshot(source, collectedAt, accounts, true),
		errors.CollectionIncomplete(string(source), len(seen), reported)
}

func (c *Collector) snapshot(source models.SnapshotSource, at time.Time, accounts []models.Account, partial bool) *models.Snapshot {
	return &models.Snapshot{
		Source:      source,
		CollectedAt: at,
		Partial:     partial,
		Accounts:    accounts,
	}
}

// pauseOnBlockSignal runs the configured backoff when the session shows a
// block phrase mid-collection.
func (c *Collector) pauseOnBlockSignal(detector *driver.Detector, log logger.Logger) {
	if c.probe == nil || detector == nil {
		return
	}
	if phrase, ok := detector.Match(c.probe.ObservedBlockPhrases()); ok {
		log.WithField("phrase", phrase).Warn("Block signal during collection")
		c.Backoff(phrase)
	}
}

// scrollDelay picks a randomized wait inside the configured range so reveals
// are not issued at machine cadence.
func (c *Collector) scrollDelay() time.Duration {
	min, max := c.cfg.ScrollDelayMin, c.cfg.ScrollDelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(c.rand.Int63n(int64(max-min)))
}
