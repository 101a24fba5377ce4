package reconcile

import (
	"time"

	"igunfollow/pkg/errors"
	"igunfollow/pkg/logger"
	"igunfollow/pkg/models"
)

// Options tunes one reconciliation.
type Options struct {
	// AllowPartialFollowers lets a partial followers snapshot through. A
	// partial followers list inflates the unfollow set with accounts that
	// do follow back, so this needs an explicit opt-in. A partial following
	// list only shrinks the set and is merely logged.
	AllowPartialFollowers bool

	// Now overrides the queue timestamp, used by tests for byte-stable
	// output. Nil means time.Now.
	Now func() time.Time
}

// Reconcile computes the action queue: every account in following that is
// neither in followers nor excluded, in following's insertion order. Given
// identical inputs the output is identical, so reruns are deterministic.
func Reconcile(following, followers *models.Snapshot, exclusions *models.ExclusionSet, opts Options) (*models.ActionQueue, error) {
	log := logger.GetLogger()

	if id, dup := following.DuplicateID(); dup {
		return nil, errors.InvalidSnapshot(string(models.SourceFollowing), id)
	}
	if id, dup := followers.DuplicateID(); dup {
		return nil, errors.InvalidSnapshot(string(models.SourceFollowers), id)
	}

	if followers.Partial && !opts.AllowPartialFollowers {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeDataIntegrity,
			Message: "followers snapshot is partial; reconciling against it would over-queue unfollows (pass --allow-partial-followers to proceed)",
			Code:    errors.ExitInvalidSnapshot,
		}
	}
	if following.Partial {
		log.Warn("Following snapshot is partial, the queue may miss candidates")
	}

	followerIDs := followers.IDSet()

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	queue := &models.ActionQueue{GeneratedAt: now()}
	excluded := 0
	for _, account := range following.Accounts {
		if followerIDs[account.ID] {
			continue
		}
		if exclusions.Contains(account) {
			excluded++
			continue
		}
		queue.Entries = append(queue.Entries, models.QueueEntry{
			ID:       account.ID,
			Username: account.Username,
		})
	}

	log.InfoWithFields("Reconciliation complete", map[string]interface{}{
		"following": len(following.Accounts),
		"followers": len(followers.Accounts),
		"excluded":  excluded,
		"queued":    queue.Len(),
	})

	return queue, nil
}
